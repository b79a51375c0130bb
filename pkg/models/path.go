package models

// DownloadPath is a named filesystem location downloads can be saved to.
type DownloadPath struct {
	ID        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Path      string `json:"path" db:"path"`
	IsDefault bool   `json:"is_default" db:"is_default"`
}

// Folder is a directory entry returned by the file browser.
type Folder struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// BrowseResult is the listing of one directory (or of the saved roots).
type BrowseResult struct {
	CurrentPath string   `json:"currentPath"`
	Folders     []Folder `json:"folders"`
}
