// Package seed loads initial site content from a YAML file. Images are not
// part of a seed; editors upload them afterwards.
package seed

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/councilsite/internal/dbx"
	"github.com/dmitrijs2005/councilsite/internal/server/models"
	"github.com/dmitrijs2005/councilsite/internal/server/repositories/repomanager"
	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Content is the shape of a seed file.
//
//	profile:
//	  vision: ...
//	  mission: ...
//	members:
//	  - name: Rina
//	    position: Ketua OSIS
//	    role: officer
//	programs:
//	  - title: Class Meeting
//	activities:
//	  - title: Pensi
//	    date: 2026-08-17
//	    category: Event
type Content struct {
	Profile    ProfileContent    `yaml:"profile"`
	Members    []MemberContent   `yaml:"members"`
	Programs   []ProgramContent  `yaml:"programs"`
	Activities []ActivityContent `yaml:"activities"`
}

type ProfileContent struct {
	Vision  string `yaml:"vision"`
	Mission string `yaml:"mission"`
}

type MemberContent struct {
	Name     string `yaml:"name"`
	Position string `yaml:"position"`
	Role     string `yaml:"role"`
}

type ProgramContent struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Content     string `yaml:"content"`
}

type ActivityContent struct {
	Title       string `yaml:"title"`
	Date        string `yaml:"date"`
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
	Content     string `yaml:"content"`
}

// Load reads and validates a seed file.
func Load(path string) (*Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates seed YAML. Unknown keys are rejected so a
// typo does not silently drop content.
func Parse(data []byte) (*Content, error) {
	var c Content
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Content) validate() error {
	for i, m := range c.Members {
		if strings.TrimSpace(m.Name) == "" {
			return fmt.Errorf("members[%d]: name is required", i)
		}
		if _, err := models.ParseMemberRole(m.Role); err != nil {
			return fmt.Errorf("members[%d]: %w", i, err)
		}
	}
	for i, p := range c.Programs {
		if strings.TrimSpace(p.Title) == "" {
			return fmt.Errorf("programs[%d]: title is required", i)
		}
	}
	for i, a := range c.Activities {
		if strings.TrimSpace(a.Title) == "" {
			return fmt.Errorf("activities[%d]: title is required", i)
		}
		if _, err := time.Parse(dateLayout, a.Date); err != nil {
			return fmt.Errorf("activities[%d]: date must look like 2006-01-02", i)
		}
		if _, err := models.ParseActivityCategory(a.Category); err != nil {
			return fmt.Errorf("activities[%d]: %w", i, err)
		}
	}
	return nil
}

// Result counts what Apply wrote.
type Result struct {
	Members    int
	Programs   int
	Activities int
}

// Apply writes c in one transaction. The profile is replaced only when the
// seed has one; records are always added.
func Apply(ctx context.Context, db *sql.DB, m repomanager.RepositoryManager, c *Content) (*Result, error) {
	res := &Result{}
	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if c.Profile.Vision != "" || c.Profile.Mission != "" {
			if _, err := m.Profile(tx).Update(ctx, strings.TrimSpace(c.Profile.Vision), strings.TrimSpace(c.Profile.Mission)); err != nil {
				return err
			}
		}
		for _, v := range c.Members {
			role, _ := models.ParseMemberRole(v.Role)
			if _, err := m.Members(tx).Create(ctx, &models.Member{
				Name:     strings.TrimSpace(v.Name),
				Position: strings.TrimSpace(v.Position),
				Role:     role,
			}); err != nil {
				return err
			}
			res.Members++
		}
		for _, v := range c.Programs {
			if _, err := m.Programs(tx).Create(ctx, &models.Program{
				Title:       strings.TrimSpace(v.Title),
				Description: strings.TrimSpace(v.Description),
				Content:     v.Content,
			}); err != nil {
				return err
			}
			res.Programs++
		}
		for _, v := range c.Activities {
			date, _ := time.Parse(dateLayout, v.Date)
			category, _ := models.ParseActivityCategory(v.Category)
			if _, err := m.Activities(tx).Create(ctx, &models.Activity{
				Title:       strings.TrimSpace(v.Title),
				Date:        date,
				Category:    category,
				Description: strings.TrimSpace(v.Description),
				Content:     v.Content,
			}); err != nil {
				return err
			}
			res.Activities++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
