package domain

type ReferenceKind string

const (
	ReferenceKindPaper    ReferenceKind = "paper"
	ReferenceKindPersonal ReferenceKind = "personal"
)

// Reference is a citable work: either a curated paper or the candidate's own work.
type Reference struct {
	ID          string        `json:"id" yaml:"id"`
	Kind        ReferenceKind `json:"kind" yaml:"kind"`
	Title       string        `json:"title" yaml:"title"`
	Authors     []string      `json:"authors,omitempty" yaml:"authors"`
	Author      string        `json:"author,omitempty" yaml:"author"`
	Year        int           `json:"year,omitempty" yaml:"year"`
	Venue       string        `json:"venue,omitempty" yaml:"venue"`
	Date        string        `json:"date,omitempty" yaml:"date"`
	Role        string        `json:"role,omitempty" yaml:"role"`
	Keywords    []string      `json:"keywords" yaml:"keywords"`
	Summary     string        `json:"summary,omitempty" yaml:"summary"`
	Positioning string        `json:"positioning,omitempty" yaml:"positioning"`
	Highlights  []string      `json:"highlights,omitempty" yaml:"highlights"`
	TalkTracks  []string      `json:"talk_tracks,omitempty" yaml:"talk_tracks"`
}

// PaperSummary is the list projection of a paper.
type PaperSummary struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Authors []string `json:"authors"`
	Year    int      `json:"year"`
	Venue   string   `json:"venue"`
}

// WorkSummary is the list projection of a personal work.
type WorkSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Date   string `json:"date"`
}

func (r *Reference) PaperSummary() PaperSummary {
	return PaperSummary{ID: r.ID, Title: r.Title, Authors: r.Authors, Year: r.Year, Venue: r.Venue}
}

func (r *Reference) WorkSummary() WorkSummary {
	return WorkSummary{ID: r.ID, Title: r.Title, Author: r.Author, Date: r.Date}
}
