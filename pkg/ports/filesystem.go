package ports

// FileSystem abstracts the file operations used for input, output and debug artifacts.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)

	// WriteFile writes data to path atomically, creating parent directories.
	// Readers never observe a partially written file and a failed write leaves no file behind.
	WriteFile(path string, data []byte) error

	MkdirAll(path string) error
}
