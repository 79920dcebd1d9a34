package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/dagflow/internal/cell"
)

// DefaultCell evaluates a PortSpec's optional `default` attribute into a
// Data Cell. A PortSpec with no default attribute evaluates to a zero
// Float64 cell. Only literal-shaped expressions are supported: numbers
// become Float64, strings become Text and bools become Int32 1 or 0; any
// other value type is an error.
func DefaultCell(p PortSpec) (cell.Cell, error) {
	if p.Default == nil {
		return cell.NewFloat64(0), nil
	}
	val, diags := p.Default.Value(&hcl.EvalContext{})
	if diags.HasErrors() {
		return cell.Cell{}, fmt.Errorf("config: evaluating default for port %q: %s", p.Name, diags.Error())
	}
	return ctyToCell(val)
}

func ctyToCell(val cty.Value) (cell.Cell, error) {
	if !val.IsKnown() || val.IsNull() {
		return cell.NewFloat64(0), nil
	}
	switch val.Type() {
	case cty.Number:
		f, _ := val.AsBigFloat().Float64()
		return cell.NewFloat64(f), nil
	case cty.String:
		return cell.NewText(val.AsString()), nil
	case cty.Bool:
		if val.True() {
			return cell.NewInt32(1), nil
		}
		return cell.NewInt32(0), nil
	default:
		return cell.Cell{}, fmt.Errorf("config: unsupported default value type %s", val.Type().FriendlyName())
	}
}
