// Package offload provides an example device-offload node Body: it hands a
// node's input cells to a remote HTTP endpoint shaped like an accelerator
// service and writes the returned values back to the node's output cells.
// This is the concrete demonstration of the device-offload hook spec.md §6
// leaves unconstrained; the core never depends on this package.
package offload

import (
	"context"
	"fmt"

	"resty.dev/v3"

	"github.com/vk/dagflow/internal/cell"
	"github.com/vk/dagflow/internal/ctxlog"
)

// request is the wire shape posted to the remote endpoint: one float64 per
// named input port.
type request struct {
	Inputs map[string]float64 `json:"inputs"`
}

// response is the wire shape read back: one float64 per named output port.
type response struct {
	Outputs map[string]float64 `json:"outputs"`
}

// Remote returns a node.Body (bound to ctx and client) that POSTs its
// inputs to endpoint as JSON and copies the JSON response back onto its
// output cells. Only Float64 cells are supported — the accelerator service
// this demonstrates is assumed to speak a flat numeric protocol; a richer
// wire format would need its own Cell<->JSON mapping.
func Remote(ctx context.Context, client *resty.Client, endpoint string) func(inputs, outputs map[string]cell.Cell) {
	logger := ctxlog.FromContext(ctx).With("offload_endpoint", endpoint)

	return func(inputs, outputs map[string]cell.Cell) {
		req := request{Inputs: make(map[string]float64, len(inputs))}
		for name, c := range inputs {
			v, ok := c.AsFloat64()
			if !ok {
				panic(&cell.VariantMismatchError{Want: cell.Float64, Have: c.Kind()})
			}
			req.Inputs[name] = v
		}

		var res response
		resp, err := client.R().
			SetContext(ctx).
			SetBody(&req).
			SetResult(&res).
			Post(endpoint)
		if err != nil {
			panic(fmt.Errorf("offload: request to %s failed: %w", endpoint, err))
		}
		if resp.IsError() {
			panic(fmt.Errorf("offload: %s returned status %s", endpoint, resp.Status()))
		}

		logger.Debug("Offload round-trip complete.", "outputs", len(res.Outputs))
		for name, v := range res.Outputs {
			if _, declared := outputs[name]; declared {
				outputs[name] = cell.NewFloat64(v)
			}
		}
	}
}
