package app

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

// Command はアプリケーションのサブコマンド名を表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。引数なしの場合の既定。
	CommandServe Command = "serve"
	// CommandWorker はカレンダー同期と保持期間クリーンアップのスケジューラを起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandDownload は市のページからカレンダーPDFをダウンロードすることを示す。
	CommandDownload Command = "download"
	// CommandParse はPDFからインポート用JSONを抽出することを示す。
	CommandParse Command = "parse"
	// CommandImport はJSONをデータベースにインポートすることを示す。
	CommandImport Command = "import"
	// CommandCreateUser はユーザーを登録することを示す。
	CommandCreateUser Command = "create-user"
)

const (
	minYear = 2000
	maxYear = 2100
)

// parseYear は年の引数を検証して返す。
func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year < minYear || year > maxYear {
		return 0, fmt.Errorf("invalid year %q: expected a year between %d and %d", s, minYear, maxYear)
	}
	return year, nil
}

// yearArg は年を1つだけ受け取るサブコマンドの引数検証。
func yearArg(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	_, err := parseYear(args[0])
	return err
}

// NewRootCommand はすべてのサブコマンドを登録したルートコマンドを返す。
// ログはwに出力する。
func NewRootCommand(w io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "notibac",
		Short:         "Waste collection calendars and SMS reminders",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd, w, CommandServe, runServe)
		},
	}
	root.SetOut(w)
	root.SetErr(w)

	root.AddCommand(
		&cobra.Command{
			Use:   string(CommandServe),
			Short: "Start the JSON API server",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withConfig(cmd, w, CommandServe, runServe)
			},
		},
		&cobra.Command{
			Use:   string(CommandWorker),
			Short: "Run the calendar sync and retention schedules",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withConfig(cmd, w, CommandWorker, runWorker)
			},
		},
		newMigrateCommand(w),
		&cobra.Command{
			Use:   string(CommandHealthcheck),
			Short: "Probe the local /health endpoint",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				// 軽量サブコマンドのため、フル初期化をスキップする
				return runHealthcheck(cmd.Context(), healthcheckURL(getEnvPort()))
			},
		},
		&cobra.Command{
			Use:   string(CommandDownload) + " <year>",
			Short: "Download the calendar PDFs published for a year",
			Args:  yearArg,
			RunE: func(cmd *cobra.Command, args []string) error {
				year, _ := parseYear(args[0])
				return withConfig(cmd, w, CommandDownload, func(env *runEnv) error {
					return runDownload(env, year)
				})
			},
		},
		&cobra.Command{
			Use:   string(CommandParse) + " <year>",
			Short: "Extract collection dates from the downloaded PDFs",
			Args:  yearArg,
			RunE: func(cmd *cobra.Command, args []string) error {
				year, _ := parseYear(args[0])
				return withConfig(cmd, w, CommandParse, func(env *runEnv) error {
					return runParse(env, year)
				})
			},
		},
		newImportCommand(w),
		newCreateUserCommand(w),
	)

	return root
}

func newMigrateCommand(w io.Writer) *cobra.Command {
	var down int
	var showVersion bool
	cmd := &cobra.Command{
		Use:   string(CommandMigrate),
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd, w, CommandMigrate, func(env *runEnv) error {
				return runMigrate(env, down, showVersion)
			})
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "Roll back the given number of migrations instead of applying")
	cmd.Flags().BoolVar(&showVersion, "version", false, "Print the current schema version and exit")
	return cmd
}

func newImportCommand(w io.Writer) *cobra.Command {
	var clearExisting bool
	cmd := &cobra.Command{
		Use:   string(CommandImport) + " <year>",
		Short: "Import extracted calendar JSON files into the database",
		Args:  yearArg,
		RunE: func(cmd *cobra.Command, args []string) error {
			year, _ := parseYear(args[0])
			return withConfig(cmd, w, CommandImport, func(env *runEnv) error {
				return runImport(env, year, clearExisting)
			})
		},
	}
	cmd.Flags().BoolVar(&clearExisting, "clear", false, "Delete the year's calendars and dates before importing")
	return cmd
}

func newCreateUserCommand(w io.Writer) *cobra.Command {
	var firstName, lastName string
	cmd := &cobra.Command{
		Use:   string(CommandCreateUser) + " <email>",
		Short: "Register a user and print its id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withConfig(cmd, w, CommandCreateUser, func(env *runEnv) error {
				return runCreateUser(env, args[0], firstName, lastName)
			})
		},
	}
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	return cmd
}
