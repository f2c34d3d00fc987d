package duckdb

// Open opens the database at path through the process default library,
// locating and loading the engine binary on first use.
func Open(path string) (*Database, error) {
	lib, err := DefaultLibrary()
	if err != nil {
		return nil, err
	}
	return lib.Open(path)
}

// OpenInMemory opens a transient in-memory database through the
// process default library.
func OpenInMemory() (*Database, error) {
	return Open(InMemoryPath)
}
