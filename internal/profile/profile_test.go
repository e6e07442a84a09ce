package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSystemInstruction_IncludesFacts(t *testing.T) {
	p := Default()
	instr := p.SystemInstruction()

	for _, s := range p.Skills {
		if !strings.Contains(instr, s.Name) {
			t.Errorf("expected instruction to mention skill %q", s.Name)
		}
	}
	for _, pr := range p.Projects {
		if !strings.Contains(instr, pr.Title+" - "+pr.Description) {
			t.Errorf("expected instruction to mention project %q", pr.Title)
		}
	}
	if !strings.Contains(instr, "CONTACT: "+p.Email) {
		t.Errorf("expected contact line")
	}
	if !strings.Contains(instr, "LOCATION: Kolkata, India") {
		t.Errorf("expected location line")
	}
	if !strings.Contains(instr, "CONTEXT FOR SUMIT DAS:") {
		t.Errorf("expected upper-cased context header")
	}
	if !strings.Contains(instr, "under 60 words") {
		t.Errorf("expected length constraint in voice guidelines")
	}
}

func TestSystemInstruction_Deterministic(t *testing.T) {
	p := Default()
	if p.SystemInstruction() != p.SystemInstruction() {
		t.Fatalf("expected identical instruction for identical profile")
	}
}

func TestSystemInstruction_FlattensBio(t *testing.T) {
	p := &Profile{Name: "Ada", Role: "Engineer", Email: "a@b.c", About: "\n  line one\n  line two  \n"}
	instr := p.SystemInstruction()
	if !strings.Contains(instr, "BIO: line one line two\n") {
		t.Fatalf("expected flattened bio, got:\n%s", instr)
	}
	if !strings.Contains(instr, "LOCATION: Remote") {
		t.Fatalf("expected fallback location")
	}
}

func TestGreeting_UsesFirstName(t *testing.T) {
	p := Default()
	want := "Systems online. I'm Sumit's AI liaison. How can I assist with your inquiry today?"
	if got := p.Greeting(); got != want {
		t.Fatalf("Greeting() = %q, want %q", got, want)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	valid := filepath.Join(dir, "profile.json")
	os.WriteFile(valid, []byte(`{"name":"Grace Hopper","role":"Systems Designer","email":"grace@example.com","skills":[{"name":"COBOL"}]}`), 0o644)

	p, err := Load(valid)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if p.FirstName() != "Grace" || len(p.Skills) != 1 {
		t.Fatalf("unexpected profile: %+v", p)
	}

	incomplete := filepath.Join(dir, "incomplete.json")
	os.WriteFile(incomplete, []byte(`{"name":"Grace"}`), 0o644)
	if _, err := Load(incomplete); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}

	broken := filepath.Join(dir, "broken.json")
	os.WriteFile(broken, []byte(`{`), 0o644)
	if _, err := Load(broken); err == nil {
		t.Fatalf("expected parse error")
	}

	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected read error")
	}
}
