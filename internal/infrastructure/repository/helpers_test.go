package repository

import "os"

const appendTestFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY
