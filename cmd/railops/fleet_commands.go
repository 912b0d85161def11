package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/railops/railops/internal/api"
	"github.com/railops/railops/internal/models"
)

const dateLayout = "2006-01-02"

func cmdProfile(ctx context.Context, client *api.Client, args []string) error {
	if len(args) == 0 {
		profile, err := client.Profile(ctx)
		if err != nil {
			return err
		}
		printProfile(profile)
		return nil
	}

	if args[0] != "update" {
		return fmt.Errorf("usage: railops profile [update <flags>], got %q", args[0])
	}

	fs := flag.NewFlagSet("profile update", flag.ContinueOnError)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	phone := fs.String("phone", "", "phone number")
	designation := fs.String("designation", "", "job title")
	depot := fs.String("depot", "", "home depot")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	// Only the flags actually given end up in the patch.
	var patch models.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			patch.Name = name
		case "email":
			patch.Email = email
		case "phone":
			patch.Phone = phone
		case "designation":
			patch.Designation = designation
		case "depot":
			patch.Depot = depot
		}
	})

	profile, err := client.PatchProfile(ctx, patch)
	if err != nil {
		return err
	}
	fmt.Println("Profile updated")
	printProfile(profile)
	return nil
}

func printProfile(p *models.Profile) {
	fmt.Printf("%s <%s>\n", p.Name, p.Email)
	if p.Phone != "" {
		fmt.Printf("Phone: %s\n", p.Phone)
	}
	if p.Designation != "" {
		fmt.Printf("%s, %s depot\n", p.Designation, p.Depot)
	}
}

func cmdPreferences(ctx context.Context, client *api.Client, args []string) error {
	current, err := client.Preferences(ctx)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		fmt.Printf("Email alerts:       %v\n", current.EmailAlerts)
		fmt.Printf("SMS alerts:         %v\n", current.SMSAlerts)
		fmt.Printf("Maintenance digest: %v\n", current.MaintenanceDigest)
		fmt.Printf("Mileage unit:       %s\n", current.MileageUnit)
		fmt.Printf("Theme:              %s\n", current.Theme)
		return nil
	}

	if args[0] != "set" {
		return fmt.Errorf("usage: railops preferences [set <flags>], got %q", args[0])
	}

	fs := flag.NewFlagSet("preferences set", flag.ContinueOnError)
	emailAlerts := fs.Bool("email-alerts", current.EmailAlerts, "email alerts on component faults")
	smsAlerts := fs.Bool("sms-alerts", current.SMSAlerts, "SMS alerts on component faults")
	digest := fs.Bool("digest", current.MaintenanceDigest, "weekly maintenance digest")
	unit := fs.String("unit", current.MileageUnit, "mileage unit (km or mi)")
	theme := fs.String("theme", current.Theme, "UI theme (light, dark or system)")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	updated, err := client.UpdatePreferences(ctx, api.PreferencesInput{
		EmailAlerts:       *emailAlerts,
		SMSAlerts:         *smsAlerts,
		MaintenanceDigest: *digest,
		MileageUnit:       *unit,
		Theme:             *theme,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Preferences saved (unit %s, theme %s)\n", updated.MileageUnit, updated.Theme)
	return nil
}

func cmdTrainsets(ctx context.Context, client *api.Client, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		fs := flag.NewFlagSet("trainsets", flag.ContinueOnError)
		status := fs.String("status", "", "filter by status")
		rest := args
		if len(rest) > 0 {
			rest = rest[1:]
		}
		if err := fs.Parse(rest); err != nil {
			return err
		}

		trainsets, err := client.Trainsets(ctx, *status)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCODE\tSTATUS\tDEPOT\tMILEAGE KM\t")
		for _, ts := range trainsets {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1f\t\n",
				shortID(ts.ID), ts.Code, ts.Status, ts.Depot, ts.CurrentMileageKM)
		}
		return w.Flush()
	}

	switch args[0] {
	case "get":
		if len(args) != 2 {
			return errors.New("usage: railops trainsets get <id>")
		}
		ts, err := client.Trainset(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", ts.Code, ts.Status)
		fmt.Printf("Depot: %s\n", ts.Depot)
		fmt.Printf("Mileage: %.1f km\n", ts.CurrentMileageKM)
		fmt.Printf("Commissioned: %s\n", ts.CommissionedAt.Format(dateLayout))
		return nil

	case "add":
		fs := flag.NewFlagSet("trainsets add", flag.ContinueOnError)
		code := fs.String("code", "", "trainset code")
		status := fs.String("status", models.TrainsetStandby, "status")
		depot := fs.String("depot", "", "home depot")
		mileage := fs.Float64("mileage", 0, "current mileage in km")
		commissioned := fs.String("commissioned", time.Now().Format(dateLayout), "commissioning date (YYYY-MM-DD)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		date, err := time.Parse(dateLayout, *commissioned)
		if err != nil {
			return fmt.Errorf("parse -commissioned: %w", err)
		}

		ts, err := client.CreateTrainset(ctx, api.TrainsetInput{
			Code:             *code,
			Status:           *status,
			Depot:            *depot,
			CurrentMileageKM: *mileage,
			CommissionedAt:   date,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (%s)\n", ts.Code, shortID(ts.ID))
		return nil

	case "set":
		if len(args) < 2 {
			return errors.New("usage: railops trainsets set <id> <flags>")
		}
		current, err := client.Trainset(ctx, args[1])
		if err != nil {
			return err
		}

		fs := flag.NewFlagSet("trainsets set", flag.ContinueOnError)
		code := fs.String("code", current.Code, "trainset code")
		status := fs.String("status", current.Status, "status")
		depot := fs.String("depot", current.Depot, "home depot")
		mileage := fs.Float64("mileage", current.CurrentMileageKM, "current mileage in km")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}

		ts, err := client.UpdateTrainset(ctx, current.ID, api.TrainsetInput{
			Code:             *code,
			Status:           *status,
			Depot:            *depot,
			CurrentMileageKM: *mileage,
			CommissionedAt:   current.CommissionedAt,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s (%s)\n", ts.Code, ts.Status)
		return nil

	case "rm":
		if len(args) != 2 {
			return errors.New("usage: railops trainsets rm <id>")
		}
		if err := client.DeleteTrainset(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("Trainset deleted")
		return nil

	default:
		return fmt.Errorf("usage: railops trainsets [list|get|add|set|rm], got %q", args[0])
	}
}

func cmdComponents(ctx context.Context, client *api.Client, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		fs := flag.NewFlagSet("components", flag.ContinueOnError)
		trainset := fs.String("trainset", "", "filter by trainset id")
		rest := args
		if len(rest) > 0 {
			rest = rest[1:]
		}
		if err := fs.Parse(rest); err != nil {
			return err
		}

		components, err := client.Components(ctx, *trainset)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSERIAL\tCATEGORY\tSTATUS\t")
		for _, comp := range components {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n",
				shortID(comp.ID), comp.Name, comp.SerialNo, comp.Category, comp.Status)
		}
		return w.Flush()
	}

	switch args[0] {
	case "add":
		fs := flag.NewFlagSet("components add", flag.ContinueOnError)
		trainset := fs.String("trainset", "", "trainset id")
		name := fs.String("name", "", "component name")
		serial := fs.String("serial", "", "serial number")
		category := fs.String("category", "", "category")
		status := fs.String("status", models.ComponentHealthy, "status")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}

		comp, err := client.CreateComponent(ctx, api.ComponentInput{
			TrainsetID:  *trainset,
			Name:        *name,
			SerialNo:    *serial,
			Category:    *category,
			Status:      *status,
			InstalledAt: time.Now(),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Installed %s (%s)\n", comp.Name, shortID(comp.ID))
		return nil

	case "set":
		if len(args) < 2 {
			return errors.New("usage: railops components set <id> <flags>")
		}
		id := args[1]
		components, err := client.Components(ctx, "")
		if err != nil {
			return err
		}
		var current *models.Component
		for i := range components {
			if components[i].ID == id || shortID(components[i].ID) == id {
				current = &components[i]
				break
			}
		}
		if current == nil {
			return fmt.Errorf("no component %q", id)
		}

		fs := flag.NewFlagSet("components set", flag.ContinueOnError)
		name := fs.String("name", current.Name, "component name")
		serial := fs.String("serial", current.SerialNo, "serial number")
		category := fs.String("category", current.Category, "category")
		status := fs.String("status", current.Status, "status")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}

		comp, err := client.UpdateComponent(ctx, current.ID, api.ComponentInput{
			TrainsetID:  current.TrainsetID,
			Name:        *name,
			SerialNo:    *serial,
			Category:    *category,
			Status:      *status,
			InstalledAt: current.InstalledAt,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Updated %s (%s)\n", comp.Name, comp.Status)
		return nil

	case "rm":
		if len(args) != 2 {
			return errors.New("usage: railops components rm <id>")
		}
		if err := client.DeleteComponent(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("Component deleted")
		return nil

	default:
		return fmt.Errorf("usage: railops components [list|add|set|rm], got %q", args[0])
	}
}

func cmdMileage(ctx context.Context, client *api.Client, args []string) error {
	if len(args) == 0 || args[0] == "list" {
		fs := flag.NewFlagSet("mileage", flag.ContinueOnError)
		trainset := fs.String("trainset", "", "filter by trainset id")
		from := fs.String("from", "", "earliest log date (YYYY-MM-DD)")
		to := fs.String("to", "", "latest log date (YYYY-MM-DD)")
		rest := args
		if len(rest) > 0 {
			rest = rest[1:]
		}
		if err := fs.Parse(rest); err != nil {
			return err
		}

		filter := api.MileageFilter{TrainsetID: *trainset}
		if *from != "" {
			parsed, err := time.Parse(dateLayout, *from)
			if err != nil {
				return fmt.Errorf("parse -from: %w", err)
			}
			filter.From = parsed
		}
		if *to != "" {
			parsed, err := time.Parse(dateLayout, *to)
			if err != nil {
				return fmt.Errorf("parse -to: %w", err)
			}
			filter.To = parsed
		}

		logs, err := client.MileageLogs(ctx, filter)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tTRAINSET\tKM\tKWH\tRECORDED BY\t")
		for _, log := range logs {
			fmt.Fprintf(w, "%s\t%s\t%.1f\t%.0f\t%s\t\n",
				log.LogDate.Format(dateLayout), shortID(log.TrainsetID),
				log.DistanceKM, log.EnergyKWh, log.RecordedBy)
		}
		return w.Flush()
	}

	if args[0] != "add" {
		return fmt.Errorf("usage: railops mileage [list|add], got %q", args[0])
	}

	fs := flag.NewFlagSet("mileage add", flag.ContinueOnError)
	trainset := fs.String("trainset", "", "trainset id")
	date := fs.String("date", time.Now().Format(dateLayout), "log date (YYYY-MM-DD)")
	km := fs.Float64("km", 0, "distance in km")
	kwh := fs.Float64("kwh", 0, "energy consumed in kWh")
	notes := fs.String("notes", "", "free-form notes")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}
	logDate, err := time.Parse(dateLayout, *date)
	if err != nil {
		return fmt.Errorf("parse -date: %w", err)
	}

	log, err := client.CreateMileageLog(ctx, api.MileageInput{
		TrainsetID: *trainset,
		LogDate:    logDate,
		DistanceKM: *km,
		EnergyKWh:  *kwh,
		Notes:      *notes,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Recorded %.1f km for %s on %s\n", log.DistanceKM, shortID(log.TrainsetID), log.LogDate.Format(dateLayout))
	return nil
}

func cmdKPIs(ctx context.Context, client *api.Client) error {
	snap, err := client.KPIs(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Fleet size:        %d\n", snap.FleetSize)
	fmt.Printf("In service:        %d\n", snap.InService)
	fmt.Printf("Standby:           %d\n", snap.Standby)
	fmt.Printf("Under maintenance: %d\n", snap.UnderMaintenance)
	fmt.Printf("Availability:      %.1f%%\n", snap.AvailabilityPct)
	fmt.Printf("Total mileage:     %.0f km\n", snap.TotalMileageKM)
	fmt.Printf("Open faults:       %d\n", snap.OpenComponentFaults)
	return nil
}

func cmdActivity(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("activity", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum entries")
	if err := fs.Parse(args); err != nil {
		return err
	}

	entries, err := client.Activity(ctx, *limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No recent activity")
		return nil
	}

	for _, entry := range entries {
		fmt.Printf("%s  %s %s %s\n",
			entry.OccurredAt.Local().Format("Jan 2 15:04"),
			entry.Actor, entry.Action, entry.Subject)
	}
	return nil
}
