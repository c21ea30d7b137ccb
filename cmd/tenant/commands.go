package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"adminpanel/internal/domain/tenants"
)

// TenantService is the part of tenants.Service the CLI drives.
type TenantService interface {
	GetAll(ctx context.Context) ([]tenants.Tenant, error)
	Create(ctx context.Context, req tenants.Request) (*tenants.Tenant, error)
	SetActive(ctx context.Context, tenantID int64, active bool) error
}

type usageError string

func (e usageError) Error() string { return string(e) }

func run(ctx context.Context, svc TenantService, args []string, out io.Writer) error {
	switch args[0] {
	case "create":
		return createTenant(ctx, svc, args[1:], out)
	case "list":
		return listTenants(ctx, svc, out)
	case "activate":
		return setActive(ctx, svc, args[1:], true, out)
	case "deactivate", "suspend":
		return setActive(ctx, svc, args[1:], false, out)
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func createTenant(ctx context.Context, svc TenantService, args []string, out io.Writer) error {
	var req tenants.Request

	for i := 0; i < len(args); i++ {
		if i+1 >= len(args) {
			return usageError(fmt.Sprintf("%s needs a value", args[i]))
		}
		switch args[i] {
		case "--name":
			req.Name = args[i+1]
		case "--domain":
			d := args[i+1]
			req.Domain = &d
		case "--logo":
			l := args[i+1]
			req.LogoURL = &l
		case "--until":
			end, err := time.Parse(time.DateOnly, args[i+1])
			if err != nil {
				return usageError(fmt.Sprintf("--until must be YYYY-MM-DD: %v", err))
			}
			end = end.Add(24*time.Hour - time.Nanosecond)
			req.SubscriptionEndDate = &end
		default:
			return usageError(fmt.Sprintf("unknown option: %s", args[i]))
		}
		i++
	}

	if req.Name == "" {
		return usageError("--name is required")
	}

	t, err := svc.Create(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Tenant '%s' created with id %d\n", t.Name, t.ID)
	return nil
}

func listTenants(ctx context.Context, svc TenantService, out io.Writer) error {
	list, err := svc.GetAll(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDOMAIN\tACTIVE\tSUBSCRIPTION END")
	for _, t := range list {
		domain, until := "-", "-"
		if t.Domain != nil {
			domain = *t.Domain
		}
		if t.SubscriptionEndDate != nil {
			until = t.SubscriptionEndDate.Format(time.DateOnly)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%s\n", t.ID, t.Name, domain, t.IsActive, until)
	}
	return w.Flush()
}

func setActive(ctx context.Context, svc TenantService, args []string, active bool, out io.Writer) error {
	if len(args) != 1 {
		return usageError("tenant id is required")
	}
	tenantID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || tenantID <= 0 {
		return usageError(fmt.Sprintf("invalid tenant id: %s", args[0]))
	}

	if err := svc.SetActive(ctx, tenantID, active); err != nil {
		return err
	}

	state := "deactivated"
	if active {
		state = "activated"
	}
	fmt.Fprintf(out, "Tenant %d %s\n", tenantID, state)
	return nil
}
