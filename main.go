/**
 * teachload 主入口文件
 *
 * 教师课表抽取与工作量分析命令行工具
 */

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/chenyang-zz/teachload/internal/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags 所有子命令共享的参数
type globalFlags struct {
	configPath string
	dbPath     string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "teachload",
		Short:         "Timetable extraction and teaching workload analysis",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default ~/.teachload/config.yaml)")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "SQLite database path (overrides config)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(newAnalyzeCmd(flags))
	root.AddCommand(newConflictsCmd(flags))
	root.AddCommand(newWeekCmd(flags))
	root.AddCommand(newExportCmd(flags))
	root.AddCommand(newHistoryCmd(flags))
	root.AddCommand(newSettingsCmd(flags))
	return root
}

/**
 * withApp 创建应用、执行 fn 并在结束后释放资源
 */
func withApp(flags *globalFlags, fn func(a *app.App) error) error {
	a, err := app.New(app.Options{
		ConfigPath: flags.configPath,
		DBPath:     flags.dbPath,
		Verbose:    flags.verbose,
	})
	if err != nil {
		return err
	}
	defer a.Shutdown()
	return fn(a)
}
