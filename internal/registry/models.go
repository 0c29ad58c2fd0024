package registry

import "time"

// Service is a tracked endpoint. Status and LastChecked are mutated
// only by the scheduler; everything else is fixed at load time.
type Service struct {
	Name        string
	URL         string
	Up          bool
	LastChecked time.Time
}

// ServiceDTO is what we expose over HTTP.
type ServiceDTO struct {
	URL         string `json:"url"`
	Up          bool   `json:"status"`
	LastChecked string `json:"last_checked"`
}

func (s Service) ToDTO() ServiceDTO {
	checked := ""
	if !s.LastChecked.IsZero() {
		checked = s.LastChecked.UTC().Format(time.RFC3339)
	}
	return ServiceDTO{
		URL:         s.URL,
		Up:          s.Up,
		LastChecked: checked,
	}
}
