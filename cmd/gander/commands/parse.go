package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ganderhq/gander/internal/engine"
	"github.com/ganderhq/gander/internal/engine/timezone"
	"github.com/ganderhq/gander/internal/models"
)

// weekdayNames maps the day flags accepted on the command line to
// weekday indices. Both long and short forms are accepted.
var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

// NewParseCmd creates the parse command
func NewParseCmd() *cobra.Command {
	var (
		tzName    string
		refTime   string
		repeat    string
		interval  int
		until     string
		count     int
		days      string
		calendar  string
		title     string
		zoom      bool
		draftFile string
	)

	cmd := &cobra.Command{
		Use:   "parse [utterance...]",
		Short: "Normalize an utterance into a structured command",
		Long: "Run the normalization engine locally on an utterance and print the " +
			"resulting command as JSON. Flags seed a draft the same way an " +
			"upstream parser would.",
		RunE: func(cmd *cobra.Command, args []string) error {
			utterance := strings.TrimSpace(strings.Join(args, " "))

			draft, err := loadDraft(draftFile)
			if err != nil {
				return err
			}
			if draft == nil && (repeat != "" || title != "" || calendar != "" || zoom) {
				draft = &models.DraftCommand{}
			}
			if draft != nil {
				if title != "" {
					draft.Title = title
				}
				if calendar != "" {
					draft.Calendar = calendar
				}
				if zoom {
					draft.ZoomMeeting = true
				}
				if repeat != "" {
					draft.Repeat = repeat
					draft.Interval = interval
					draft.Until = until
					draft.Count = count
					if days != "" {
						parsed, err := parseDays(days)
						if err != nil {
							return err
						}
						draft.DaysOfWeek = parsed
					}
				}
			}
			if utterance == "" && draft == nil {
				return fmt.Errorf("provide an utterance, a draft file, or both")
			}

			loc, err := time.LoadLocation(tzName)
			if err != nil {
				return fmt.Errorf("invalid timezone %q: %w", tzName, err)
			}

			now := time.Now()
			if refTime != "" {
				now, err = time.Parse(time.RFC3339, refTime)
				if err != nil {
					return fmt.Errorf("invalid reference time %q (want RFC3339): %w", refTime, err)
				}
			}

			eng := engine.New(engine.Options{
				LocalZone:   loc,
				TimezoneRes: timezone.NewResolver(nil),
			})

			res, normErr := eng.Normalize(utterance, draft, now)

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return fmt.Errorf("encode result: %w", err)
			}

			if _, ok := engine.AsRejection(normErr); ok {
				return fmt.Errorf("command rejected: %s", res.Reason)
			}
			return normErr
		},
	}

	cmd.Flags().StringVarP(&tzName, "timezone", "z", "UTC", "IANA timezone of the speaker")
	cmd.Flags().StringVar(&refTime, "at", "", "Reference time in RFC3339 format (default: now)")
	cmd.Flags().StringVar(&repeat, "repeat", "", "Recurrence frequency (daily, weekly, monthly, yearly)")
	cmd.Flags().IntVar(&interval, "interval", 0, "Recurrence interval (with --repeat)")
	cmd.Flags().StringVar(&until, "until", "", "Recurrence end date YYYY-MM-DD (with --repeat)")
	cmd.Flags().IntVar(&count, "count", 0, "Recurrence occurrence count (with --repeat)")
	cmd.Flags().StringVar(&days, "days", "", "Comma-separated weekdays for weekly recurrence (e.g. mon,wed,fri)")
	cmd.Flags().StringVar(&calendar, "calendar", "", "Target calendar name")
	cmd.Flags().StringVar(&title, "title", "", "Command title, overrides title extraction")
	cmd.Flags().BoolVar(&zoom, "zoom", false, "Request a video meeting")
	cmd.Flags().StringVar(&draftFile, "draft", "", "Path to a draft command JSON file ('-' for stdin)")

	return cmd
}

// loadDraft reads a draft command from a file or stdin. An empty path
// means no draft.
func loadDraft(path string) (*models.DraftCommand, error) {
	if path == "" {
		return nil, nil
	}
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read draft: %w", err)
	}
	var draft models.DraftCommand
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, fmt.Errorf("parse draft JSON: %w", err)
	}
	return &draft, nil
}

func parseDays(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", part)
		}
		out = append(out, int(day))
	}
	return out, nil
}
