package order

import (
	"context"
	"errors"
	"fmt"
	"strings"

	catalogrepo "github.com/Additional-Code/oficina/internal/repository/catalog"
	"github.com/Additional-Code/oficina/pkg/errorbank"
)

// references lists the catalog records an order write points at.
type references struct {
	clientID     string
	checkClient  bool
	vehicleID    *string
	checkVehicle bool
	services     []LineInput
	parts        []LineInput
}

// checkReferences reports every unknown reference in a single InvalidReference
// error. A vehicle must belong to the order's client.
func checkReferences(ctx context.Context, cat *catalogrepo.Repository, refs references) error {
	var problems []string

	if refs.checkClient {
		_, err := cat.GetClient(ctx, refs.clientID)
		switch {
		case errors.Is(err, catalogrepo.ErrNotFound):
			problems = append(problems, fmt.Sprintf("cliente %s não encontrado", refs.clientID))
		case err != nil:
			return err
		}
	}

	if refs.checkVehicle && refs.vehicleID != nil {
		vehicle, err := cat.GetVehicle(ctx, *refs.vehicleID)
		switch {
		case errors.Is(err, catalogrepo.ErrNotFound):
			problems = append(problems, fmt.Sprintf("veículo %s não encontrado", *refs.vehicleID))
		case err != nil:
			return err
		case vehicle.ClientID != refs.clientID:
			problems = append(problems, fmt.Sprintf("veículo %s não pertence ao cliente %s", *refs.vehicleID, refs.clientID))
		}
	}

	if ids := uniqueRefs(refs.services); len(ids) > 0 {
		found, err := cat.FindServices(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				problems = append(problems, fmt.Sprintf("serviço %s não encontrado", id))
			}
		}
	}

	if ids := uniqueRefs(refs.parts); len(ids) > 0 {
		found, err := cat.FindParts(ctx, ids)
		if err != nil {
			return err
		}
		for _, id := range ids {
			if _, ok := found[id]; !ok {
				problems = append(problems, fmt.Sprintf("peça %s não encontrada", id))
			}
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return errorbank.InvalidReference(strings.Join(problems, "; "))
}

// uniqueRefs returns the distinct ids of in, in first-seen order.
func uniqueRefs(in []LineInput) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, l := range in {
		if _, ok := seen[l.RefID]; ok {
			continue
		}
		seen[l.RefID] = struct{}{}
		out = append(out, l.RefID)
	}
	return out
}
