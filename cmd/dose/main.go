package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"dose-go/internal/app"
	"dose-go/internal/config"
	"dose-go/internal/dose"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a DoseApp. The caller must defer app.Close().
// command identifies the CLI command being run (e.g. "AddMedication", "Run").
func newApp(command string) (*app.DoseApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewDoseApp(cfg, command, app.Options{
		Passphrase: app.PassphraseSource(defaults.Passphrase, os.Stdin, os.Stderr),
	})
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var rootCmd = &cobra.Command{
	Use:          "dose",
	Short:        "Medication and appointment reminders",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)

		var passphrase string
		if encrypt {
			cfg.Encryption.Type = "age"
			passphrase = defaults.Passphrase
			if passphrase == "" {
				if passphrase, err = app.ReadNewPassphrase(os.Stdin, os.Stderr); err != nil {
					return err
				}
			}
		}

		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", cfg.BaseDir)

		if encrypt {
			if err := app.InitEncryption(cfg, passphrase); err != nil {
				return fmt.Errorf("setting up encryption: %w", err)
			}
			fmt.Printf("Encryption keys written to %s\n", filepath.Dir(cfg.Encryption.PrivateKeyPath))
		}
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Store:         %s\n", cfg.Store.Type)
		fmt.Printf("Encryption:    %s\n", cfg.Encryption.Type)
		fmt.Printf("Notifications: %s\n", cfg.Notifications.Type)
		fmt.Printf("Assistant:     %t\n", cfg.Assistant.APIKey != "")
		fmt.Printf("Listen:        %s\n", cfg.Server.Listen)
		return nil
	},
}

// med command
var medCmd = &cobra.Command{
	Use:   "med",
	Short: "Manage medications",
}

var medAddCmd = &cobra.Command{
	Use:   "add NAME HH:MM",
	Short: "Add a daily medication",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		dosage, _ := cmd.Flags().GetString("dosage")

		a, err := newApp("AddMedication")
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := a.Service().AddMedication(args[0], dosage, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Added %s at %s (%s)\n", m.Name, m.Time, m.ID)
		return nil
	},
}

var medListCmd = &cobra.Command{
	Use:   "list",
	Short: "List medications",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListMedications")
		if err != nil {
			return err
		}
		defer a.Close()

		meds := a.Service().Medications()
		if len(meds) == 0 {
			fmt.Println("No medications.")
			return nil
		}
		for _, m := range meds {
			taken := " "
			if m.Taken {
				taken = "x"
			}
			fmt.Printf("[%s] %s  %s  %-20s %s\n", taken, m.ID, m.Time, m.Name, m.Dosage)
		}
		return nil
	},
}

var medTakeCmd = &cobra.Command{
	Use:   "take ID",
	Short: "Toggle a medication's taken flag",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ToggleTaken")
		if err != nil {
			return err
		}
		defer a.Close()

		m, err := a.Service().ToggleTaken(args[0])
		if err != nil {
			return err
		}
		if m.Taken {
			fmt.Printf("%s marked as taken\n", m.Name)
		} else {
			fmt.Printf("%s marked as not taken\n", m.Name)
		}
		return nil
	},
}

var medDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a medication",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteMedication")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().DeleteMedication(args[0]); err != nil {
			return err
		}
		fmt.Println("Medication deleted")
		return nil
	},
}

// appt command
var apptCmd = &cobra.Command{
	Use:   "appt",
	Short: "Manage appointments",
}

var apptAddCmd = &cobra.Command{
	Use:   "add YYYY-MM-DD HH:MM SPECIALTY",
	Short: "Add an appointment",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		location, _ := cmd.Flags().GetString("location")

		a, err := newApp("AddAppointment")
		if err != nil {
			return err
		}
		defer a.Close()

		appt, err := a.Service().AddAppointment(args[0], args[1], args[2], location)
		if err != nil {
			return err
		}
		fmt.Printf("Added %s on %s at %s (%s)\n", appt.Specialty, appt.Date, appt.Time, appt.ID)
		return nil
	},
}

var apptListCmd = &cobra.Command{
	Use:   "list",
	Short: "List appointments",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListAppointments")
		if err != nil {
			return err
		}
		defer a.Close()

		appts := a.Service().Appointments()
		if len(appts) == 0 {
			fmt.Println("No appointments.")
			return nil
		}
		for _, appt := range appts {
			notified := ""
			if appt.Notified {
				notified = "  [notified]"
			}
			fmt.Printf("%s  %s %s  %-16s %s%s\n", appt.ID, appt.Date, appt.Time, appt.Specialty, appt.Location, notified)
		}
		return nil
	},
}

var apptDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an appointment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteAppointment")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().DeleteAppointment(args[0]); err != nil {
			return err
		}
		fmt.Println("Appointment deleted")
		return nil
	},
}

// journal command
var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Mood journal",
}

var journalAddCmd = &cobra.Command{
	Use:   "add TEXT...",
	Short: "Write a journal entry",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AddJournalEntry")
		if err != nil {
			return err
		}
		defer a.Close()

		e, err := a.Service().AddJournalEntry(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Printf("Saved entry %s\n", e.ID)
		return nil
	},
}

var journalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List journal entries, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("ListJournalEntries")
		if err != nil {
			return err
		}
		defer a.Close()

		entries := a.Service().JournalEntries()
		if len(entries) == 0 {
			fmt.Println("No journal entries.")
			return nil
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		for _, e := range entries {
			fmt.Printf("%s  %s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Content)
		}
		return nil
	},
}

// file command
var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage archived documents",
}

var fileAddCmd = &cobra.Command{
	Use:   "add PATH...",
	Short: "Archive one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ArchiveFiles")
		if err != nil {
			return err
		}
		defer a.Close()

		inputs := make([]dose.FileInput, 0, len(args))
		for _, p := range args {
			inputs = append(inputs, dose.FileInput{
				Name: filepath.Base(p),
				Open: func() (io.ReadCloser, error) { return os.Open(p) },
			})
		}

		stored, err := a.Service().ArchiveFiles(cmd.Context(), inputs)
		for _, f := range stored {
			fmt.Printf("Archived %s (%s) as %s\n", f.Name, f.Type, f.ID)
		}
		if err != nil {
			return fmt.Errorf("some files were not archived: %w", err)
		}
		return nil
	},
}

var fileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived files",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListArchivedFiles")
		if err != nil {
			return err
		}
		defer a.Close()

		files := a.Service().ArchivedFiles()
		if len(files) == 0 {
			fmt.Println("No archived files.")
			return nil
		}
		for _, f := range files {
			fmt.Printf("%s  %-24s %s\n", f.ID, f.Type, f.Name)
		}
		return nil
	},
}

var fileDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete an archived file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("DeleteArchivedFile")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Service().DeleteArchivedFile(args[0]); err != nil {
			return err
		}
		fmt.Println("File deleted")
		return nil
	},
}

// ask command
var askCmd = &cobra.Command{
	Use:   "ask MED_ID [QUESTION...]",
	Short: "Ask the assistant about a medication",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("AskAboutMedication")
		if err != nil {
			return err
		}
		defer a.Close()

		answer, err := a.Service().AskAboutMedication(cmd.Context(), args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		fmt.Println(answer)
		return nil
	},
}

// notify command
var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Manage notification permission",
}

var notifyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show notification permission",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("NotificationStatus")
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("Permission: %s\n", a.Gateway().Permission())
		return nil
	},
}

var notifyRequestCmd = &cobra.Command{
	Use:   "request",
	Short: "Ask for notification permission",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RequestPermission")
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Printf("Permission: %s\n", a.Gateway().RequestPermission(cmd.Context()))
		return nil
	},
}

var notifyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("TestNotification")
		if err != nil {
			return err
		}
		defer a.Close()

		g := a.Gateway()
		if p := g.Permission(); p != dose.PermissionGranted {
			return fmt.Errorf("notifications are %s: run 'dose notify request'", p)
		}
		g.Show("Test notification", dose.ShowOptions{Body: "Reminders will look like this.", Tag: "test"})
		return nil
	},
}

// run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the reminder session in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Run")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signalContext()
		defer stop()

		if a.Gateway().Permission() == dose.PermissionDefault {
			a.Gateway().RequestPermission(ctx)
		}
		return a.Run(ctx)
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the reminder session and the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Serve")
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signalContext()
		defer stop()
		return a.ListenAndServe(ctx)
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configInitCmd.Flags().Bool("encrypt", false, "Encrypt stored records with a passphrase-protected age key")
	configCmd.AddCommand(configListCmd)

	medCmd.AddCommand(medAddCmd)
	medAddCmd.Flags().StringP("dosage", "d", "", "Dosage, e.g. \"500mg\"")
	medCmd.AddCommand(medListCmd)
	medCmd.AddCommand(medTakeCmd)
	medCmd.AddCommand(medDeleteCmd)

	apptCmd.AddCommand(apptAddCmd)
	apptAddCmd.Flags().StringP("location", "l", "", "Where the appointment takes place")
	apptCmd.AddCommand(apptListCmd)
	apptCmd.AddCommand(apptDeleteCmd)

	journalCmd.AddCommand(journalAddCmd)
	journalCmd.AddCommand(journalListCmd)
	journalListCmd.Flags().IntP("limit", "n", 20, "Maximum number of entries to show")

	fileCmd.AddCommand(fileAddCmd)
	fileCmd.AddCommand(fileListCmd)
	fileCmd.AddCommand(fileDeleteCmd)

	notifyCmd.AddCommand(notifyStatusCmd)
	notifyCmd.AddCommand(notifyRequestCmd)
	notifyCmd.AddCommand(notifyTestCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(medCmd)
	rootCmd.AddCommand(apptCmd)
	rootCmd.AddCommand(journalCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(notifyCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}
