package export

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Annotation is a caller-supplied note pinned to one ISO day. Annotations
// are read-only input to the report: nothing here stores them.
type Annotation struct {
	Date string `yaml:"date"`
	Note string `yaml:"note"`
}

type annotationsFile struct {
	Annotations []Annotation `yaml:"annotations"`
}

// LoadAnnotations reads an annotations YAML file and validates each entry's
// date. A missing path is not an error; the report just has no notes.
func LoadAnnotations(path string) ([]Annotation, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read annotations file: %w", err)
	}

	var file annotationsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse annotations file: %w", err)
	}
	for _, entry := range file.Annotations {
		if _, err := time.Parse("2006-01-02", entry.Date); err != nil {
			return nil, fmt.Errorf("annotation date %q: expected YYYY-MM-DD", entry.Date)
		}
		if entry.Note == "" {
			return nil, fmt.Errorf("annotation for %s has an empty note", entry.Date)
		}
	}
	return file.Annotations, nil
}

func annotationsByDate(annotations []Annotation) map[string][]string {
	byDate := make(map[string][]string, len(annotations))
	for _, entry := range annotations {
		byDate[entry.Date] = append(byDate[entry.Date], entry.Note)
	}
	return byDate
}
