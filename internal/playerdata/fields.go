package playerdata

import (
	"fmt"
	"strings"

	"github.com/Tnze/go-mc/nbt"
)

// Top-level keys of a player file that may be transplanted.
const (
	FieldInventory           = "Inventory"
	FieldEnderItems          = "EnderItems"
	FieldXpLevel             = "XpLevel"
	FieldXpP                 = "XpP"
	FieldXpTotal             = "XpTotal"
	FieldFoodLevel           = "foodLevel"
	FieldFoodSaturationLevel = "foodSaturationLevel"
	FieldFoodExhaustionLevel = "foodExhaustionLevel"
	FieldHealth              = "Health"
	FieldAbsorptionAmount    = "AbsorptionAmount"
)

var allowlist = []string{
	FieldInventory,
	FieldEnderItems,
	FieldXpLevel,
	FieldXpP,
	FieldXpTotal,
	FieldFoodLevel,
	FieldFoodSaturationLevel,
	FieldFoodExhaustionLevel,
	FieldHealth,
	FieldAbsorptionAmount,
}

var fieldInfo = map[string]string{
	FieldInventory:           "main inventory",
	FieldEnderItems:          "ender chest",
	FieldXpLevel:             "experience level",
	FieldXpP:                 "experience progress",
	FieldXpTotal:             "total experience",
	FieldFoodLevel:           "food level",
	FieldFoodSaturationLevel: "food saturation",
	FieldFoodExhaustionLevel: "food exhaustion",
	FieldHealth:              "health",
	FieldAbsorptionAmount:    "absorption hearts",
}

// DefaultFields returns the full allowlist in its canonical order.
func DefaultFields() []string {
	return append([]string(nil), allowlist...)
}

func IsAllowed(field string) bool {
	_, ok := fieldInfo[field]
	return ok
}

// Describe returns a human label for an allowlisted field.
func Describe(field string) string {
	if d, ok := fieldInfo[field]; ok {
		return d
	}
	return field
}

// ValidateFields rejects empty lists, names outside the allowlist (which is
// case-sensitive) and duplicates.
func ValidateFields(fields []string) error {
	if len(fields) == 0 {
		return fmt.Errorf("no fields selected")
	}
	seen := make(map[string]bool, len(fields))
	var bad []string
	for _, f := range fields {
		if !IsAllowed(f) {
			bad = append(bad, f)
			continue
		}
		if seen[f] {
			return fmt.Errorf("duplicate field %q", f)
		}
		seen[f] = true
	}
	if len(bad) > 0 {
		return fmt.Errorf("fields not in allowlist: %s (allowed: %s)", strings.Join(bad, ", "), strings.Join(allowlist, ", "))
	}
	return nil
}

// Record is one decoded player file. Top-level values stay in their binary
// form, so keys this tool knows nothing about are written back unchanged.
type Record struct {
	Name string
	Data map[string]nbt.RawMessage
}

func NewRecord() *Record {
	return &Record{Data: map[string]nbt.RawMessage{}}
}
