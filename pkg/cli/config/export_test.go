package config

// SetDirectoryPath sets the room directory path for tests
func (x *Rooms) SetDirectoryPath(path string) {
	x.directoryPath = path
}
