package arbeitsagentur

import "strings"

type Jobs struct {
	Items []*Job
}

// Job is one item of the jobsuche search response. Field names mirror the
// API's German payload.
type Job struct {
	HashID      string `json:"hashId,omitempty"`
	ID          string `json:"id,omitempty"`
	Kennnummer  string `json:"kennnummer,omitempty"`
	RefNr       string `json:"refnr,omitempty"`
	Titel       string `json:"titel,omitempty"`
	Beruf       string `json:"beruf,omitempty"`
	Arbeitgeber string `json:"arbeitgeber,omitempty"`
	Arbeitsort  struct {
		PLZ    string `json:"plz,omitempty"`
		Ort    string `json:"ort,omitempty"`
		Region string `json:"region,omitempty"`
	} `json:"arbeitsort,omitempty"`
	URL         string `json:"externeUrl,omitempty"`
	PublishedAt string `json:"aktuelleVeroeffentlichungsdatum,omitempty"`
}

// Key returns the identifier used for links and deduplication. Not every
// item carries a hashId, so it falls back through the weaker identifiers.
func (j *Job) Key() string {
	for _, id := range []string{j.HashID, j.ID, j.Kennnummer, j.RefNr} {
		if strings.TrimSpace(id) != "" {
			return strings.TrimSpace(id)
		}
	}
	return ""
}

// Title returns the job title, falling back to the occupation field.
func (j *Job) Title() string {
	if strings.TrimSpace(j.Titel) != "" {
		return j.Titel
	}
	return j.Beruf
}

// Location renders the workplace as "Ort, Region" when both are present.
func (j *Job) Location() string {
	ort := strings.TrimSpace(j.Arbeitsort.Ort)
	region := strings.TrimSpace(j.Arbeitsort.Region)
	switch {
	case ort != "" && region != "" && !strings.EqualFold(ort, region):
		return ort + ", " + region
	case ort != "":
		return ort
	default:
		return region
	}
}

func (v *Jobs) Len() int {
	return len(v.Items)
}

func (v *Jobs) FindByKey(key string) *Job {
	for _, job := range v.Items {
		if job.Key() == key {
			return job
		}
	}
	return nil
}
