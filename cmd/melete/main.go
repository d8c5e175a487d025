package main

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mkaravas/melete/internal/api"
	"github.com/mkaravas/melete/internal/cards"
	"github.com/mkaravas/melete/internal/console"
	"github.com/mkaravas/melete/internal/i18n"
	"github.com/mkaravas/melete/internal/model"
	"github.com/mkaravas/melete/internal/server"
	"github.com/mkaravas/melete/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		if err == console.ErrInterrupted {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "melete",
		Short: "Spaced-repetition vocabulary trainer",
	}

	quiz := quizCmd()
	root.AddCommand(quiz, cardsCmd(), importCmd(), serveCmd())

	// Make "quiz" the default when no subcommand is given.
	root.RunE = quiz.RunE

	// Register quiz flags on root so bare `melete --language ...` still works.
	root.Flags().AddFlagSet(quiz.Flags())

	return root
}

func quizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Take a quiz over the cards that are due",
		RunE:  runQuiz,
	}
	f := cmd.Flags()
	f.StringP("server", "s", "http://localhost:8181", "Backend base URL")
	f.StringP("language", "l", "gr", "Language to quiz (gr)")
	f.IntP("duration", "d", 0, "Quiz time budget in seconds (0 = unlimited)")
	f.String("ui-lang", "en", "UI language (en, el)")
	f.String("log-level", "warn", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func cardsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cards",
		Short: "List the cards the backend knows",
		RunE:  runCards,
	}
	f := cmd.Flags()
	f.StringP("server", "s", "http://localhost:8181", "Backend base URL")
	f.String("ui-lang", "en", "UI language (en, el)")
	f.String("log-level", "warn", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [path ...]",
		Short: "Import card files into the database",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runImport,
	}
	f := cmd.Flags()
	f.String("db", "melete.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the quiz backend server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8181", "HTTP listen address")
	f.String("db", "melete.db", "SQLite database path")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelWarn
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("MELETE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("melete")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/melete")
	v.AddConfigPath("/etc/melete")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runQuiz(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	lang, err := model.ParseLanguage(v.GetString("language"))
	if err != nil {
		return err
	}
	loc, err := i18n.New(v.GetString("ui-lang"))
	if err != nil {
		return err
	}

	client := api.New(v.GetString("server"))
	budget := time.Duration(v.GetInt("duration")) * time.Second

	c := console.New(client, client, loc, lang, budget)
	return c.Run(cmd.Context())
}

func runCards(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	loc, err := i18n.New(v.GetString("ui-lang"))
	if err != nil {
		return err
	}
	client := api.New(v.GetString("server"))
	ctx := cmd.Context()

	ids, err := client.ListCards(ctx)
	if err != nil {
		return fmt.Errorf("list cards: %w", err)
	}
	for _, id := range ids {
		card, err := client.FetchCard(ctx, id)
		if err != nil {
			return fmt.Errorf("fetch card %s: %w", id, err)
		}
		en := strings.Join(card.MeaningsIn(model.LanguageEnglish), "; ")
		gr := strings.Join(card.MeaningsIn(model.LanguageGreek), "; ")
		fmt.Printf("%s  %s = %s\n", id, en, gr)
	}
	fmt.Println(loc.Td("CardCount", map[string]any{"Count": len(ids)}))
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	for _, root := range args {
		if err := importPath(db, root); err != nil {
			return err
		}
	}
	return nil
}

// importPath imports one card file, or every regular file under a
// directory. Cards without a uuid get one assigned on import.
func importPath(db *store.Store, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}

		file, err := cards.ParseFile(path)
		if err != nil {
			return err
		}
		for _, card := range file.Cards {
			id := card.UUID
			if id == uuid.Nil {
				id = uuid.New()
			}
			if err := db.UpsertCard(id, path, card.StartLine, card.Lines); err != nil {
				return fmt.Errorf("store card %s:%d: %w", path, card.StartLine, err)
			}
		}
		slog.Info("imported cards", "path", path, "count", len(file.Cards))
		return nil
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	h := server.New(db)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server", "addr", addr, "db", v.GetString("db"))
	return http.ListenAndServe(addr, r)
}
