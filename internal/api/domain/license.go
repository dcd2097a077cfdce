package domain

// License is a reference row looked up by name during upload ingestion.
type License struct {
	ID      string
	Name    string
	Summary string
}
