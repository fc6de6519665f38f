package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/chenyang-zz/teachload/internal/app"
	"github.com/chenyang-zz/teachload/internal/domain/calendar"
	"github.com/chenyang-zz/teachload/internal/domain/models"
	"github.com/chenyang-zz/teachload/internal/infrastructure/config"
	"github.com/chenyang-zz/teachload/internal/infrastructure/export"
	"github.com/chenyang-zz/teachload/internal/report"
	"github.com/chenyang-zz/teachload/internal/services"
)

/**
 * loadSnapshot 有文件参数时加载文件，否则恢复上次的日程
 */
func loadSnapshot(ctx context.Context, a *app.App, args []string) (*services.Snapshot, error) {
	if len(args) == 0 {
		return a.Service.LoadLast(ctx)
	}
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	return a.Service.Load(ctx, string(raw))
}

/**
 * withCurrent 与 withApp 相同，但先恢复上次的日程，使设置变更后能立即重新计算
 */
func withCurrent(ctx context.Context, flags *globalFlags, fn func(a *app.App) error) error {
	return withApp(flags, func(a *app.App) error {
		if _, err := a.Service.LoadLast(ctx); err != nil && !errors.Is(err, services.ErrNoSchedule) {
			return err
		}
		return fn(a)
	})
}

// selectWeek --week 从 1 开始；为 0 时定位当前周
func selectWeek(weeks []models.WeekSchedule, week int) (calendar.Location, error) {
	located := calendar.LocateWeek(weeks, time.Now())
	if week == 0 {
		return located, nil
	}
	if week < 1 || week > len(weeks) {
		return calendar.Location{}, fmt.Errorf("week %d out of range (1-%d)", week, len(weeks))
	}
	if located.Index == week-1 {
		return located, nil
	}
	return calendar.Location{Index: week - 1, Position: calendar.PositionUnknown}, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Extract a timetable (HTML or JSON backup) and print workload metrics",
		Long:  "Without a file argument the last loaded timetable is analyzed again.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app.App) error {
				snap, err := loadSnapshot(cmd.Context(), a, args)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if asJSON {
					return writeJSON(out, snap.Metrics)
				}
				_, _ = fmt.Fprintln(out, report.NewRenderer(out).Summary(snap.Data, snap.Metrics))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print metrics as JSON")
	return cmd
}

func newConflictsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "conflicts [file]",
		Short: "List teacher and room conflicts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app.App) error {
				snap, err := loadSnapshot(cmd.Context(), a, args)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, report.NewRenderer(out).Conflicts(snap.Data, snap.Conflicts))
				return nil
			})
		},
	}
}

func newWeekCmd(flags *globalFlags) *cobra.Command {
	var week int

	cmd := &cobra.Command{
		Use:   "week [file]",
		Short: "Show one week of the timetable (current week by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app.App) error {
				snap, err := loadSnapshot(cmd.Context(), a, args)
				if err != nil {
					return err
				}
				loc, err := selectWeek(snap.Annotated.Weeks, week)
				if err != nil {
					return err
				}
				levels, err := a.Service.DayLoadLevels(loc.Index)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, report.NewRenderer(out).Week(snap.Annotated, loc, levels))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&week, "week", 0, "week number (1-based)")
	return cmd
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var (
		output   string
		week     int
		teachers []string
	)

	cmd := &cobra.Command{
		Use:   "export <ics|xlsx|csv|json> [file]",
		Short: "Export the timetable",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := export.ParseFormat(args[0])
			if err != nil {
				return err
			}
			return withApp(flags, func(a *app.App) error {
				snap, err := loadSnapshot(cmd.Context(), a, args[1:])
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if output != "" && output != "-" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("创建输出文件失败: %w", err)
					}
					defer f.Close()
					w = f
				}

				switch format {
				case export.FormatICS:
					loc, err := selectWeek(snap.Data.Weeks, week)
					if err != nil {
						return err
					}
					n, err := a.Exporter.WriteICS(w, snap.Data, export.ICSOptions{WeekIndex: loc.Index, Teachers: teachers})
					if err != nil {
						return err
					}
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "exported %d events (week %d)\n", n, snap.Data.Weeks[loc.Index].WeekNumber)
				case export.FormatXLSX:
					err = a.Exporter.WriteXLSX(w, snap.Data, snap.Metrics)
				case export.FormatCSV:
					err = a.Exporter.WriteCSV(w, snap.Data)
				case export.FormatJSON:
					err = a.Exporter.WriteJSON(w, snap.Data)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().IntVar(&week, "week", 0, "week number for ics (default current week)")
	cmd.Flags().StringSliceVar(&teachers, "teacher", nil, "only export sessions of these teachers (ics)")
	return cmd
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	history := &cobra.Command{Use: "history", Short: "Saved timetables"}

	history.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved timetables, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(a *app.App) error {
				items, err := a.Service.History()
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, report.NewRenderer(out).History(items))
				return nil
			})
		},
	})

	history.AddCommand(&cobra.Command{
		Use:   "load <id>",
		Short: "Make a saved timetable current and print its metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(flags, func(a *app.App) error {
				snap, err := a.Service.OpenHistory(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintln(out, report.NewRenderer(out).Summary(snap.Data, snap.Metrics))
				return nil
			})
		},
	})

	history.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved timetable",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return withApp(flags, func(a *app.App) error {
				return a.Service.DeleteHistory(args[0])
			})
		},
	})

	history.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Delete all saved timetables",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return withApp(flags, func(a *app.App) error {
				return a.Service.ClearHistory()
			})
		},
	})
	return history
}

func newSettingsCmd(flags *globalFlags) *cobra.Command {
	settings := &cobra.Command{Use: "settings", Short: "Type overrides, abbreviations and load thresholds"}
	settings.AddCommand(newOverrideCmd(flags), newAbbrevCmd(flags), newThresholdsCmd(flags))
	return settings
}

func newOverrideCmd(flags *globalFlags) *cobra.Command {
	override := &cobra.Command{
		Use:   "override <code> <LT|TH>",
		Short: "Override the session type of a course code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			courseType, ok := models.ParseCourseType(args[1])
			if !ok {
				return fmt.Errorf("invalid type %q (want LT or TH)", args[1])
			}
			return withCurrent(cmd.Context(), flags, func(a *app.App) error {
				snap, err := a.Service.SetOverride(args[0], courseType)
				return printRecomputed(cmd.OutOrStdout(), snap, err)
			})
		},
	}

	override.AddCommand(&cobra.Command{
		Use:   "clear <code>",
		Short: "Remove a type override",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCurrent(cmd.Context(), flags, func(a *app.App) error {
				snap, err := a.Service.ClearOverride(args[0])
				return printRecomputed(cmd.OutOrStdout(), snap, err)
			})
		},
	})

	override.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List type overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(a *app.App) error {
				overrides, err := a.Service.Overrides()
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), overrides)
			})
		},
	})
	return override
}

func newAbbrevCmd(flags *globalFlags) *cobra.Command {
	abbrev := &cobra.Command{Use: "abbrev", Short: "Course name abbreviations"}

	abbrev.AddCommand(&cobra.Command{
		Use:   "suggest",
		Short: "Generate abbreviations for subjects of the current timetable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCurrent(cmd.Context(), flags, func(a *app.App) error {
				merged, err := a.Service.SuggestAbbreviations()
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), merged)
			})
		},
	})

	abbrev.AddCommand(&cobra.Command{
		Use:   "set <name> <abbr>",
		Short: "Set an abbreviation (empty abbr removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCurrent(cmd.Context(), flags, func(a *app.App) error {
				snap, err := a.Service.SetAbbreviation(args[0], args[1])
				return printRecomputed(cmd.OutOrStdout(), snap, err)
			})
		},
	})

	abbrev.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Remove all abbreviations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCurrent(cmd.Context(), flags, func(a *app.App) error {
				snap, err := a.Service.ResetAbbreviations()
				return printRecomputed(cmd.OutOrStdout(), snap, err)
			})
		},
	})

	abbrev.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List abbreviations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(flags, func(a *app.App) error {
				abbreviations, err := a.Service.Abbreviations()
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), abbreviations)
			})
		},
	})
	return abbrev
}

func newThresholdsCmd(flags *globalFlags) *cobra.Command {
	var daily, weekly string

	cmd := &cobra.Command{
		Use:     "thresholds",
		Short:   "Show or set daily/weekly warning,danger thresholds",
		Example: "  teachload settings thresholds --daily 8,10 --weekly 25,35",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withCurrent(cmd.Context(), flags, func(a *app.App) error {
				curDaily, curWeekly := a.Service.Thresholds()
				if daily == "" && weekly == "" {
					return writeJSON(cmd.OutOrStdout(), map[string]config.LevelThreshold{
						"daily":  curDaily,
						"weekly": curWeekly,
					})
				}

				var err error
				if daily != "" {
					if curDaily, err = parseThreshold(daily); err != nil {
						return err
					}
				}
				if weekly != "" {
					if curWeekly, err = parseThreshold(weekly); err != nil {
						return err
					}
				}
				snap, err := a.Service.SetThresholds(curDaily, curWeekly)
				return printRecomputed(cmd.OutOrStdout(), snap, err)
			})
		},
	}
	cmd.Flags().StringVar(&daily, "daily", "", "daily thresholds as warning,danger")
	cmd.Flags().StringVar(&weekly, "weekly", "", "weekly thresholds as warning,danger")
	return cmd
}

// parseThreshold 解析 "warning,danger"
func parseThreshold(s string) (config.LevelThreshold, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return config.LevelThreshold{}, fmt.Errorf("invalid threshold %q (want warning,danger)", s)
	}
	warning, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return config.LevelThreshold{}, fmt.Errorf("invalid warning value %q", parts[0])
	}
	danger, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return config.LevelThreshold{}, fmt.Errorf("invalid danger value %q", parts[1])
	}
	return config.LevelThreshold{Warning: warning, Danger: danger}, nil
}

// printRecomputed 设置变更后打印新的概览；没有当前日程时只确认保存
func printRecomputed(out io.Writer, snap *services.Snapshot, err error) error {
	if err != nil {
		return err
	}
	if snap == nil {
		_, _ = fmt.Fprintln(out, "saved")
		return nil
	}
	_, _ = fmt.Fprintln(out, report.NewRenderer(out).Summary(snap.Data, snap.Metrics))
	return nil
}
