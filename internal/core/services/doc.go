// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Permission checks for tables and folders happen here, against the
// Principal passed in by the caller, because the required permission
// depends on which table or folder is addressed.
package services
