package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/unit-selector/app/models"
)

// Converts a portal profile export (JSON, keyed by site key) into the
// YAML catalog the file profile source serves.
//
// Usage:
//
//	go run scripts/seed_profiles.go -in storage/profiles_export.json -out config/profiles.yaml

type catalogDoc struct {
	Profiles map[string]catalogProfile `yaml:"profiles"`
}

type catalogProfile struct {
	BuildingStart         int                        `yaml:"building_start"`
	BuildingCount         int                        `yaml:"building_count"`
	DefaultLineCount      int                        `yaml:"default_line_count"`
	DefaultMaxFloor       int                        `yaml:"default_max_floor"`
	DefaultBasementFloors int                        `yaml:"default_basement_floors"`
	BuildingOverrides     map[string]catalogOverride `yaml:"building_overrides,omitempty"`
}

type catalogOverride struct {
	LineCount      *int           `yaml:"line_count,omitempty"`
	MaxFloor       *int           `yaml:"max_floor,omitempty"`
	BasementFloors *int           `yaml:"basement_floors,omitempty"`
	LineMaxFloors  map[string]int `yaml:"line_max_floors,omitempty"`
}

func main() {
	in := flag.String("in", "storage/profiles_export.json", "portal profile export (json)")
	out := flag.String("out", "config/profiles.yaml", "catalog destination (yaml)")
	flag.Parse()

	fmt.Println("🔄 Converting profile export to catalog...")

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatal("Error reading profile export:", err)
	}

	var export map[string]models.SiteProfile
	if err := json.Unmarshal(data, &export); err != nil {
		log.Fatal("Error unmarshaling profile export:", err)
	}

	fmt.Printf("✅ Loaded %d site profiles\n", len(export))

	doc := catalogDoc{Profiles: make(map[string]catalogProfile, len(export))}
	for key, p := range export {
		doc.Profiles[key] = toCatalogProfile(p.Sanitize())
	}

	output, err := yaml.Marshal(doc)
	if err != nil {
		log.Fatal("Error marshaling catalog:", err)
	}

	if err := os.WriteFile(*out, output, 0644); err != nil {
		log.Fatal("Error writing catalog:", err)
	}

	fmt.Printf("✅ Converted %d site profiles\n", len(doc.Profiles))
	fmt.Printf("📁 Saved to %s\n", *out)
}

func toCatalogProfile(p models.SiteProfile) catalogProfile {
	cp := catalogProfile{
		BuildingStart:         p.BuildingStart,
		BuildingCount:         p.BuildingCount,
		DefaultLineCount:      p.DefaultLineCount,
		DefaultMaxFloor:       p.DefaultMaxFloor,
		DefaultBasementFloors: p.DefaultBasementFloors,
	}

	if len(p.BuildingOverrides) == 0 {
		return cp
	}

	cp.BuildingOverrides = make(map[string]catalogOverride, len(p.BuildingOverrides))
	for id, o := range p.BuildingOverrides {
		cp.BuildingOverrides[id] = catalogOverride{
			LineCount:      o.LineCount,
			MaxFloor:       o.MaxFloor,
			BasementFloors: o.BasementFloors,
			LineMaxFloors:  o.LineMaxFloors,
		}
	}
	return cp
}
