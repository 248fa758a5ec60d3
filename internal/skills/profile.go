// Package skills builds candidate skill profiles, directly or from resume text.
package skills

import "strings"

// Profile is an ordered set of lower-cased skills.
type Profile struct {
	items []string
	index map[string]struct{}
}

// NewProfile normalizes and deduplicates skills, keeping first-seen order.
func NewProfile(skills ...string) Profile {
	var p Profile
	for _, skill := range skills {
		p.Add(skill)
	}
	return p
}

// Add inserts a skill unless it is blank or already present.
func (p *Profile) Add(skill string) bool {
	skill = Normalize(skill)
	if skill == "" {
		return false
	}
	if p.index == nil {
		p.index = make(map[string]struct{})
	}
	if _, ok := p.index[skill]; ok {
		return false
	}
	p.index[skill] = struct{}{}
	p.items = append(p.items, skill)
	return true
}

func (p Profile) Contains(skill string) bool {
	_, ok := p.index[Normalize(skill)]
	return ok
}

func (p Profile) Len() int {
	return len(p.items)
}

func (p Profile) Empty() bool {
	return len(p.items) == 0
}

// Skills returns a copy of the skills in insertion order.
func (p Profile) Skills() []string {
	return append([]string(nil), p.items...)
}

// String renders the profile the way posting embeddings were computed.
func (p Profile) String() string {
	return strings.Join(p.items, ", ")
}

// Intersect returns profile skills also present in jobSkills, in profile order.
func (p Profile) Intersect(jobSkills []string) []string {
	job := NewProfile(jobSkills...)
	out := make([]string, 0, min(p.Len(), job.Len()))
	for _, skill := range p.items {
		if job.Contains(skill) {
			out = append(out, skill)
		}
	}
	return out
}

// Normalize lower-cases and trims a skill, collapsing inner whitespace.
func Normalize(skill string) string {
	return strings.ToLower(strings.Join(strings.Fields(skill), " "))
}
