package httphandler_test

import (
	"testing"

	// Packages
	test "github.com/Grinnz/minion-pg/pkg/test"
)

// Global connection variable, populated by TestMain
var conn test.Conn

// Open a temp-file database and share it across every test in this package
func TestMain(m *testing.M) {
	test.Main(m, &conn)
}
