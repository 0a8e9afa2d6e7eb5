// Package importer loads tag and ingredient reference data from CSV or YAML files.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/repository"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported file extension %q", filepath.Ext(path))
}

type IngredientRow struct {
	Name            string `yaml:"name" validate:"required,max=99"`
	MeasurementUnit string `yaml:"measurement_unit" validate:"required,max=50"`
}

type TagRow struct {
	Name  string `yaml:"name" validate:"required,max=20"`
	Color string `yaml:"color" validate:"required,hexcolor,len=7"`
	Slug  string `yaml:"slug" validate:"required,max=50,slug"`
}

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	return v
}

// Result counts what an import did
type Result struct {
	Created int
	Updated int
	Skipped int
}

// ParseIngredients reads ingredient rows; CSV input needs a name,measurement_unit header
func ParseIngredients(r io.Reader, format Format) ([]IngredientRow, error) {
	var rows []IngredientRow
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
	case FormatCSV:
		records, err := readCSV(r, "name", "measurement_unit")
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			rows = append(rows, IngredientRow{Name: rec["name"], MeasurementUnit: rec["measurement_unit"]})
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	for i := range rows {
		rows[i].Name = strings.TrimSpace(rows[i].Name)
		rows[i].MeasurementUnit = strings.TrimSpace(rows[i].MeasurementUnit)
		if err := validate.Struct(rows[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return rows, nil
}

// ParseTags reads tag rows; CSV input needs a name,color,slug header
func ParseTags(r io.Reader, format Format) ([]TagRow, error) {
	var rows []TagRow
	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&rows); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode yaml: %w", err)
		}
	case FormatCSV:
		records, err := readCSV(r, "name", "color", "slug")
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			rows = append(rows, TagRow{Name: rec["name"], Color: rec["color"], Slug: rec["slug"]})
		}
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}

	for i := range rows {
		rows[i].Name = strings.TrimSpace(rows[i].Name)
		rows[i].Color = strings.ToUpper(strings.TrimSpace(rows[i].Color))
		rows[i].Slug = strings.TrimSpace(rows[i].Slug)
		if err := validate.Struct(rows[i]); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return rows, nil
}

// readCSV maps every record onto the header; the header must contain each required column
func readCSV(r io.Reader, required ...string) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("csv header is missing column %q", col)
		}
	}

	var out []map[string]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		row := make(map[string]string, len(index))
		for col, i := range index {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// ImportIngredients inserts rows not yet present by name and unit
func ImportIngredients(ctx context.Context, repo repository.IngredientRepository, rows []IngredientRow) (Result, error) {
	var res Result
	for _, row := range rows {
		created, err := repo.CreateIfMissing(ctx, &models.Ingredient{Name: row.Name, MeasurementUnit: row.MeasurementUnit})
		if err != nil {
			return res, fmt.Errorf("failed to import ingredient %q: %w", row.Name, err)
		}
		if created {
			res.Created++
		} else {
			res.Skipped++
		}
	}
	logging.Ctx(ctx).Info().Int("created", res.Created).Int("skipped", res.Skipped).Msg("imported ingredients")
	return res, nil
}

// ImportTags upserts rows by slug
func ImportTags(ctx context.Context, repo repository.TagRepository, rows []TagRow) (Result, error) {
	var res Result
	for _, row := range rows {
		if err := repo.Upsert(ctx, &models.Tag{Name: row.Name, Color: row.Color, Slug: row.Slug}); err != nil {
			return res, fmt.Errorf("failed to import tag %q: %w", row.Slug, err)
		}
		res.Updated++
	}
	logging.Ctx(ctx).Info().Int("upserted", res.Updated).Msg("imported tags")
	return res, nil
}
