package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Column names of the raw and enriched schema.
const (
	ColID                = "ID"
	ColType              = "Type"
	ColDistrict          = "District"
	ColCity              = "City"
	ColPrice             = "Price"
	ColTotalArea         = "TotalArea"
	ColLivingArea        = "LivingArea"
	ColTotalRooms        = "TotalRooms"
	ColNumberOfBedrooms  = "NumberOfBedrooms"
	ColGarage            = "Garage"
	ColEnergyCertificate = "EnergyCertificate"
	ColConstructionYear  = "ConstructionYear"
	ColNumberOfBathrooms = "NumberOfBathrooms"
	ColAreaAssigned      = "AreaAssigned"
	ColRoomsAssigned     = "RoomsAssigned"
	ColPricePerSqm       = "PricePerSqm"
	ColRegion            = "Region"
)

// RequiredRawColumns must be present in every raw input file.
var RequiredRawColumns = []string{
	ColType,
	ColDistrict,
	ColCity,
	ColPrice,
	ColTotalArea,
	ColLivingArea,
	ColTotalRooms,
	ColNumberOfBedrooms,
	ColGarage,
	ColEnergyCertificate,
	ColConstructionYear,
	ColNumberOfBathrooms,
}

type column struct {
	get   func(r *Record) (string, bool)
	set   func(r *Record, raw string) error
	clear func(r *Record)
}

var typedColumns = map[string]column{
	ColID: {
		get: func(r *Record) (string, bool) { return strconv.Itoa(r.ID), true },
		set: func(r *Record, raw string) error {
			id, err := strconv.Atoi(raw)
			if err != nil {
				return err
			}
			r.ID = id
			return nil
		},
		clear: func(r *Record) {},
	},
	ColType:              stringColumn(func(r *Record) *string { return &r.Type }),
	ColDistrict:          stringColumn(func(r *Record) *string { return &r.District }),
	ColCity:              stringColumn(func(r *Record) *string { return &r.City }),
	ColPrice:             floatColumn(func(r *Record) **float64 { return &r.Price }),
	ColTotalArea:         floatColumn(func(r *Record) **float64 { return &r.TotalArea }),
	ColLivingArea:        floatColumn(func(r *Record) **float64 { return &r.LivingArea }),
	ColTotalRooms:        intColumn(func(r *Record) **int { return &r.TotalRooms }),
	ColNumberOfBedrooms:  intColumn(func(r *Record) **int { return &r.NumberOfBedrooms }),
	ColGarage:            boolColumn(func(r *Record) **bool { return &r.Garage }),
	ColEnergyCertificate: optionalStringColumn(func(r *Record) **string { return &r.EnergyCertificate }),
	ColConstructionYear:  intColumn(func(r *Record) **int { return &r.ConstructionYear }),
	ColNumberOfBathrooms: intColumn(func(r *Record) **int { return &r.NumberOfBathrooms }),
	ColAreaAssigned:      floatColumn(func(r *Record) **float64 { return &r.AreaAssigned }),
	ColRoomsAssigned:     intColumn(func(r *Record) **int { return &r.RoomsAssigned }),
	ColPricePerSqm:       floatColumn(func(r *Record) **float64 { return &r.PricePerSqm }),
	ColRegion:            optionalStringColumn(func(r *Record) **string { return &r.Region }),
}

func stringColumn(field func(r *Record) *string) column {
	return column{
		get: func(r *Record) (string, bool) {
			v := *field(r)
			return v, v != ""
		},
		set: func(r *Record, raw string) error {
			*field(r) = raw
			return nil
		},
		clear: func(r *Record) { *field(r) = "" },
	}
}

func optionalStringColumn(field func(r *Record) **string) column {
	return column{
		get: func(r *Record) (string, bool) {
			v := *field(r)
			if v == nil || *v == "" {
				return "", false
			}
			return *v, true
		},
		set: func(r *Record, raw string) error {
			if raw == "" {
				*field(r) = nil
				return nil
			}
			*field(r) = String(raw)
			return nil
		},
		clear: func(r *Record) { *field(r) = nil },
	}
}

func floatColumn(field func(r *Record) **float64) column {
	return column{
		get: func(r *Record) (string, bool) {
			v := *field(r)
			if v == nil {
				return "", false
			}
			return FormatFloat(*v), true
		},
		set: func(r *Record, raw string) error {
			if raw == "" {
				*field(r) = nil
				return nil
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return err
			}
			if math.IsNaN(v) {
				*field(r) = nil
				return nil
			}
			*field(r) = Float(v)
			return nil
		},
		clear: func(r *Record) { *field(r) = nil },
	}
}

// intColumn accepts integral floats ("3.0") as written by dataframe tools.
func intColumn(field func(r *Record) **int) column {
	return column{
		get: func(r *Record) (string, bool) {
			v := *field(r)
			if v == nil {
				return "", false
			}
			return strconv.Itoa(*v), true
		},
		set: func(r *Record, raw string) error {
			if raw == "" {
				*field(r) = nil
				return nil
			}
			if v, err := strconv.Atoi(raw); err == nil {
				*field(r) = Int(v)
				return nil
			}
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return err
			}
			if math.IsNaN(f) {
				*field(r) = nil
				return nil
			}
			if f != math.Trunc(f) {
				return fmt.Errorf("not an integer: %s", raw)
			}
			*field(r) = Int(int(f))
			return nil
		},
		clear: func(r *Record) { *field(r) = nil },
	}
}

func boolColumn(field func(r *Record) **bool) column {
	return column{
		get: func(r *Record) (string, bool) {
			v := *field(r)
			if v == nil {
				return "", false
			}
			return strconv.FormatBool(*v), true
		},
		set: func(r *Record, raw string) error {
			if raw == "" {
				*field(r) = nil
				return nil
			}
			v, err := strconv.ParseBool(strings.ToLower(raw))
			if err != nil {
				return err
			}
			*field(r) = Bool(v)
			return nil
		},
		clear: func(r *Record) { *field(r) = nil },
	}
}

// FormatFloat renders v without trailing zeros.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Value returns the textual value of a column and whether it is present.
func (r *Record) Value(name string) (string, bool) {
	if c, ok := typedColumns[name]; ok {
		return c.get(r)
	}
	v, ok := r.Extra[name]
	if !ok || v == nil || *v == "" {
		return "", false
	}
	return *v, true
}

// SetValue parses raw into the column. An empty string stores a missing value.
func (r *Record) SetValue(name, raw string) error {
	raw = strings.TrimSpace(raw)
	if c, ok := typedColumns[name]; ok {
		return c.set(r, raw)
	}
	if r.Extra == nil {
		r.Extra = make(map[string]*string)
	}
	if raw == "" {
		r.Extra[name] = nil
		return nil
	}
	r.Extra[name] = String(raw)
	return nil
}

// Clear removes the column value from the record.
func (r *Record) Clear(name string) {
	if c, ok := typedColumns[name]; ok {
		c.clear(r)
		return
	}
	delete(r.Extra, name)
}
