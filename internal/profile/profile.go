// Package profile holds the professional facts the assistant speaks about and
// builds the persona instruction sent with every generation request.
package profile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

var ErrInvalidProfile = errors.New("invalid profile")

type Skill struct {
	Name  string `json:"name"`
	Level int    `json:"level,omitempty"` // 0-100
}

type Project struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
}

type Profile struct {
	Name     string    `json:"name"`
	Role     string    `json:"role"`
	About    string    `json:"about"`
	Email    string    `json:"email"`
	Location string    `json:"location"`
	Skills   []Skill   `json:"skills"`
	Projects []Project `json:"projects"`
}

// Default returns the built-in profile.
func Default() *Profile {
	return &Profile{
		Name:     "Sumit Das",
		Role:     "Product Designer & Creative Developer",
		Location: "Kolkata, India",
		Email:    "hello@sumitdas.design",
		About: `
I design digital products where structure and emotion meet. For the last eight years I have
worked across brand systems, interaction design and front-end engineering, shipping interfaces
for fintech, culture and developer tools. I treat every screen as architecture: load paths,
rhythm and the negative space between decisions.
`,
		Skills: []Skill{
			{Name: "Interaction Design", Level: 95},
			{Name: "Design Systems", Level: 92},
			{Name: "Motion & Micro-interactions", Level: 88},
			{Name: "React & TypeScript", Level: 85},
			{Name: "WebGL / Three.js", Level: 72},
			{Name: "Brand Identity", Level: 80},
		},
		Projects: []Project{
			{
				Title:       "Monolith Finance",
				Description: "A banking dashboard rebuilt around a single column of intent, cutting task time by 40%.",
				Tags:        []string{"fintech", "dashboard"},
			},
			{
				Title:       "Aperture Gallery",
				Description: "An immersive exhibition site pairing scroll-driven WebGL with archival photography.",
				Tags:        []string{"culture", "webgl"},
			},
			{
				Title:       "Gridline DS",
				Description: "A token-based design system serving four product teams and two platforms.",
				Tags:        []string{"design system"},
			},
		},
	}
}

// Load reads a JSON profile from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile %s: %w", path, err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (p *Profile) Validate() error {
	missing := []string{}
	if strings.TrimSpace(p.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(p.Role) == "" {
		missing = append(missing, "role")
	}
	if strings.TrimSpace(p.Email) == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidProfile, strings.Join(missing, ", "))
	}
	return nil
}

// FirstName returns the first word of the name.
func (p *Profile) FirstName() string {
	if fields := strings.Fields(p.Name); len(fields) > 0 {
		return fields[0]
	}
	return p.Name
}

// Greeting is the assistant message every new conversation starts with.
func (p *Profile) Greeting() string {
	return fmt.Sprintf("Systems online. I'm %s's AI liaison. How can I assist with your inquiry today?", p.FirstName())
}

// SystemInstruction builds the persona string. It is meant to be called once at
// startup and the result reused for every request.
func (p *Profile) SystemInstruction() string {
	var b strings.Builder

	skills := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		skills = append(skills, s.Name)
	}

	projects := make([]string, 0, len(p.Projects))
	for _, pr := range p.Projects {
		projects = append(projects, fmt.Sprintf("%s - %s", pr.Title, pr.Description))
	}

	location := p.Location
	if location == "" {
		location = "Remote"
	}

	// Persona
	b.WriteString(fmt.Sprintf("You are the high-end digital liaison for %s, an award-winning %s.\n", p.Name, p.Role))
	b.WriteString("Your objective is to provide sophisticated, precise, and inspiring responses to inquiries about their professional background.\n\n")

	// Facts
	b.WriteString(fmt.Sprintf("CONTEXT FOR %s:\n", strings.ToUpper(p.Name)))
	b.WriteString(fmt.Sprintf("BIO: %s\n", strings.Join(strings.Fields(p.About), " ")))
	b.WriteString(fmt.Sprintf("EXPERTISE: %s\n", strings.Join(skills, ", ")))
	b.WriteString(fmt.Sprintf("KEY PROJECTS: %s\n", strings.Join(projects, " | ")))
	b.WriteString(fmt.Sprintf("CONTACT: %s\n", p.Email))
	b.WriteString(fmt.Sprintf("LOCATION: %s\n\n", location))

	// Voice
	b.WriteString("VOICE GUIDELINES:\n")
	b.WriteString("1. Tone: Minimalist, architectural, slightly enigmatic but deeply helpful.\n")
	b.WriteString("2. Style: Avoid fluff. Focus on the 'why' behind the design. Use terms like \"visual tension,\" \"systemic architecture,\" and \"ergonomic flow.\"\n")
	b.WriteString("3. Constraints: Keep responses under 60 words unless detailing a specific case study.\n")
	b.WriteString("4. Redirection: If asked about non-design topics, pivot back to the intersection of technology and human intuition.\n\n")

	b.WriteString("When greeting, acknowledge the user as a \"collaborator\" or \"visitor.\"\n")

	return b.String()
}
