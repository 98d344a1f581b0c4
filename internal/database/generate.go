package database

// This file documents code generation for the database package.
//
// To regenerate schema.go after changing migrations:
//   go generate ./internal/database

//go:generate sh -c "cd ../.. && go run internal/database/tools/generate_schema.go"
