package drive

import "testing"

func TestPolicyByName(t *testing.T) {
	for name, want := range map[string]string{
		"thunderborg": "thunderborg",
		"A":           "thunderborg",
		"redboard":    "redboard",
		"rb":          "redboard",
	} {
		p, err := PolicyByName(name)
		if err != nil {
			t.Fatalf("PolicyByName(%q): %v", name, err)
		}
		if p.Name != want {
			t.Errorf("PolicyByName(%q): expected %s, got %s", name, want, p.Name)
		}
	}

	if _, err := PolicyByName("hovercraft"); err == nil {
		t.Error("expected error for unknown variant")
	}
}

func TestPresetsValidate(t *testing.T) {
	for _, p := range []Policy{ThunderBorgPolicy(), RedBoardPolicy()} {
		if err := p.Validate(); err != nil {
			t.Errorf("%s: %v", p.Name, err)
		}
	}
}

func TestValidateRejectsToggleWithoutSafetyMode(t *testing.T) {
	p := ThunderBorgPolicy()
	p.Bind(Binding{Buttons: []string{"select"}, Effect: EffectToggleLive})
	if err := p.Validate(); err == nil {
		t.Error("expected error")
	}
}

func TestBindReplacesExisting(t *testing.T) {
	p := RedBoardPolicy()
	n := len(p.Bindings)

	b, err := ParseBinding(EffectTerminate, "home")
	if err != nil {
		t.Fatal(err)
	}
	p.Bind(b)
	if len(p.Bindings) != n {
		t.Fatalf("expected %d bindings, got %d", n, len(p.Bindings))
	}

	tr := NewTrim(p)
	if out := tr.HandleEvents(NewButtonSet("home")); !out.Terminate {
		t.Error("expected home to terminate")
	}
	if out := tr.HandleEvents(NewButtonSet("dup", "triangle")); out.Terminate {
		t.Error("old combo still terminates")
	}
}

func TestParseBinding(t *testing.T) {
	b, err := ParseBinding(EffectReboot, " dleft + square ")
	if err != nil {
		t.Fatal(err)
	}
	if len(b.Buttons) != 2 || b.Buttons[0] != "dleft" || b.Buttons[1] != "square" {
		t.Errorf("unexpected buttons %v", b.Buttons)
	}
	if b.String() != "dleft+square=reboot" {
		t.Errorf("String: got %q", b.String())
	}

	if _, err := ParseBinding(EffectReboot, "dleft++square"); err == nil {
		t.Error("expected error for empty button")
	}
}

func TestParseEffectRoundTrip(t *testing.T) {
	for e := EffectTerminate; e <= EffectTrimDown; e++ {
		got, err := ParseEffect(e.String())
		if err != nil || got != e {
			t.Errorf("ParseEffect(%q): got %v, %v", e.String(), got, err)
		}
	}
}
