package repository

import (
	"encoding/json"
	"fmt"

	"github.com/okian/meritrack/internal/domain/model"
	"github.com/okian/meritrack/internal/domain/skillgap"
)

// encodeJSON marshals v; a nil map is stored as NULL.
func encodeJSON(v map[string]any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}
	return b, nil
}

func decodeJSON(b []byte, v any) error {
	if len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

func encodeGitHub(d model.GitHubData) (profile, stats []byte, err error) {
	if profile, err = json.Marshal(d.Profile); err != nil {
		return nil, nil, fmt.Errorf("encode profile: %w", err)
	}
	if stats, err = json.Marshal(d.Stats); err != nil {
		return nil, nil, fmt.Errorf("encode stats: %w", err)
	}
	return profile, stats, nil
}

func decodeGitHub(d *model.GitHubData, profile, stats []byte) error {
	if err := decodeJSON(profile, &d.Profile); err != nil {
		return err
	}
	return decodeJSON(stats, &d.Stats)
}

type encodedProfile struct {
	skills, gaps, learn, improve []byte
}

func encodeProfile(p skillgap.Profile) (encodedProfile, error) {
	var (
		enc encodedProfile
		err error
	)
	if enc.skills, err = json.Marshal(nonNil(p.UserSkills)); err != nil {
		return enc, fmt.Errorf("encode user skills: %w", err)
	}
	if enc.gaps, err = json.Marshal(nonNil(p.Gaps)); err != nil {
		return enc, fmt.Errorf("encode gaps: %w", err)
	}
	if enc.learn, err = json.Marshal(nonNil(p.SkillsToLearn)); err != nil {
		return enc, fmt.Errorf("encode skills to learn: %w", err)
	}
	if enc.improve, err = json.Marshal(nonNil(p.SkillsToImprove)); err != nil {
		return enc, fmt.Errorf("encode skills to improve: %w", err)
	}
	return enc, nil
}

func decodeProfile(p *skillgap.Profile, skills, gaps, learn, improve []byte) error {
	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{skills, &p.UserSkills},
		{gaps, &p.Gaps},
		{learn, &p.SkillsToLearn},
		{improve, &p.SkillsToImprove},
	} {
		if err := decodeJSON(f.raw, f.dst); err != nil {
			return err
		}
	}
	return nil
}

// nonNil keeps empty lists as [] rather than null in the stored JSON.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
