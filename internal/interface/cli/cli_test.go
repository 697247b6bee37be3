package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, settingPath string, args ...string) (string, error) {
	t.Helper()

	root := NewRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--setting", settingPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func testEnv(t *testing.T) (vaultRoot, settingPath string) {
	t.Helper()
	dir := t.TempDir()
	vaultRoot = filepath.Join(dir, "vault")
	settingPath = filepath.Join(dir, "setting.yml")
	t.Setenv("VAULTLOOP_VAULT_ROOT", vaultRoot)
	t.Setenv("VAULTLOOP_LOCK_DB_PATH", filepath.Join(dir, "run.db"))
	return vaultRoot, settingPath
}

func TestInitCreatesLayoutAndSetting(t *testing.T) {
	vaultRoot, settingPath := testEnv(t)

	out, err := runCLI(t, settingPath, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "vault ready")

	for _, dir := range []string{"Inbox", "Planning", "Pending_Approval", "Approved", "Rejected", "Done", "Plans", "Logs"} {
		info, err := os.Stat(filepath.Join(vaultRoot, dir))
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}

	_, err = os.Stat(settingPath)
	require.NoError(t, err)
}

func TestApprovalCreateAndScan(t *testing.T) {
	_, settingPath := testEnv(t)

	_, err := runCLI(t, settingPath, "init")
	require.NoError(t, err)

	out, err := runCLI(t, settingPath, "approval", "create",
		"--action", "send_email",
		"--detail", "to=client@example.com",
		"--detail", "body=Numbers attached",
		"--reason", "Client asked",
		"--priority", "high",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "APPROVAL_send_email_")

	out, err = runCLI(t, settingPath, "approval", "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "pending: 1")
	assert.Contains(t, out, "approved: 0")
}

func TestApprovalCreateRequiresAction(t *testing.T) {
	_, settingPath := testEnv(t)

	_, err := runCLI(t, settingPath, "init")
	require.NoError(t, err)

	_, err = runCLI(t, settingPath, "approval", "create", "--reason", "missing action")
	assert.Error(t, err)
}

func TestPlanCreateParsesSteps(t *testing.T) {
	vaultRoot, settingPath := testEnv(t)

	_, err := runCLI(t, settingPath, "init")
	require.NoError(t, err)

	body := "This needs multiple steps.\n\n## Steps\n1. Gather the figures\n2. Draft the report\n"
	out, err := runCLI(t, settingPath, "plan", "create",
		"--subject", "Quarterly report",
		"--body", body,
		"--submit",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "(2 steps)")
	assert.Contains(t, out, "Pending_Approval/")

	entries, err := os.ReadDir(filepath.Join(vaultRoot, "Pending_Approval"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestPlanCreateSkipsSimpleWork(t *testing.T) {
	_, settingPath := testEnv(t)

	_, err := runCLI(t, settingPath, "init")
	require.NoError(t, err)

	out, err := runCLI(t, settingPath, "plan", "create",
		"--subject", "Quick note",
		"--body", "Just say thanks.",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "no plan needed")
}

func TestStatusCountsFolders(t *testing.T) {
	_, settingPath := testEnv(t)

	_, err := runCLI(t, settingPath, "init")
	require.NoError(t, err)

	_, err = runCLI(t, settingPath, "approval", "create", "--action", "send_email", "--reason", "x")
	require.NoError(t, err)

	out, err := runCLI(t, settingPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Pending_Approval  1")
}

func TestJournalPrintsRecords(t *testing.T) {
	_, settingPath := testEnv(t)

	_, err := runCLI(t, settingPath, "init")
	require.NoError(t, err)

	_, err = runCLI(t, settingPath, "approval", "create", "--action", "send_email", "--reason", "x")
	require.NoError(t, err)

	out, err := runCLI(t, settingPath, "journal", "--domain", "approvals")
	require.NoError(t, err)
	assert.Contains(t, out, `"event":"request_created"`)

	_, err = runCLI(t, settingPath, "journal", "--domain", "nope")
	assert.Error(t, err)
}

func TestRunOnceTick(t *testing.T) {
	_, settingPath := testEnv(t)

	_, err := runCLI(t, settingPath, "init")
	require.NoError(t, err)

	out, err := runCLI(t, settingPath, "run", "--once")
	require.NoError(t, err)
	_ = out
}
