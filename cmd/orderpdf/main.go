// Command orderpdf renders an order form given as JSON into a PDF file.
//
//	orderpdf -in form.json -out bon.pdf
//	cat form.json | orderpdf -logo logo.png
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"github.com/diewo77/bon-de-commande/internal/assets"
	"github.com/diewo77/bon-de-commande/internal/models"
	"github.com/diewo77/bon-de-commande/internal/services"
	"github.com/diewo77/bon-de-commande/web"
)

type options struct {
	in       string
	out      string
	dir      string
	logo     string
	timezone string
	timeout  time.Duration
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "-", "JSON order form to read, - for stdin")
	flag.StringVar(&opts.out, "out", "", "output file (default: <type>_<company>.pdf in -dir)")
	flag.StringVar(&opts.dir, "dir", ".", "output directory when -out is not set")
	flag.StringVar(&opts.logo, "logo", "", "logo image (default: built-in logo)")
	flag.StringVar(&opts.timezone, "tz", "Europe/Paris", "time zone of printed dates")
	flag.DurationVar(&opts.timeout, "timeout", 30*time.Second, "give up after this long")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	path, err := run(opts, os.Stdin)
	if err != nil {
		logger.Error("orderpdf failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("document written", slog.String("path", path))
}

func run(opts options, stdin io.Reader) (string, error) {
	form, err := readForm(opts.in, stdin)
	if err != nil {
		return "", err
	}
	loc, err := time.LoadLocation(opts.timezone)
	if err != nil {
		return "", fmt.Errorf("time zone %q: %w", opts.timezone, err)
	}

	var logo assets.Source = assets.BytesSource(web.DefaultLogo())
	if opts.logo != "" {
		logo = assets.FileSource{Path: opts.logo}
	}
	svc := services.NewExportService(logo, services.WithLocation(loc))

	ctx := context.Background()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}
	out, err := svc.Export(ctx, form)
	if err != nil {
		return "", err
	}

	path := opts.out
	if path == "" {
		path = filepath.Join(opts.dir, out.Filename)
	}
	if err := os.WriteFile(path, out.Content, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func readForm(name string, stdin io.Reader) (models.OrderForm, error) {
	r := stdin
	if name != "-" && name != "" {
		f, err := os.Open(name)
		if err != nil {
			return models.OrderForm{}, err
		}
		defer f.Close()
		r = f
	}
	var form models.OrderForm
	if err := json.NewDecoder(r).Decode(&form); err != nil {
		return models.OrderForm{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return form.Normalize(), nil
}
