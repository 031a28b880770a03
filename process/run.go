// Package process drives batch annotation of page sources: single files,
// directory trees and zip archives.
package process

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	yaml "gopkg.in/yaml.v3"

	"margo/activation"
	"margo/archive"
	"margo/config"
	"margo/content"
	"margo/enhance"
	"margo/enhance/action"
	"margo/state"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("enhance")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Mailformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, log)
}

// process handles the core logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and
// processes accordingly.
func process(ctx context.Context, src, dst string, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, log); err != nil {
				return errors.New("unable to process directory")
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))
			if err := processArchive(ctx, head, tail, "", dst, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		if isPageFile(head) && len(tail) == 0 {
			if file, err := os.Open(head); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			} else {
				defer file.Close()
				if err := processPage(ctx, file, filepath.Base(head), dst, log); err != nil {
					log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
				}
			}
			break
		}
		return fmt.Errorf("input was not recognized as page source (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

// processDir walks directory tree finding page files and processes them.
func processDir(ctx context.Context, dir, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	err = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		if !isPageFile(path) {
			log.Debug("Skipping file, not recognized as page or archive", zap.String("file", path))
			return nil
		}

		count++

		file, err := os.Open(path)
		if err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
			return nil
		}
		defer file.Close()

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processPage(ctx, file, src, dst, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
	return err
}

// processArchive walks all files inside archive, finds page files under
// "pathIn" and processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	match := func(name string) bool {
		return strings.HasPrefix(name, pathIn) && isPageFile(name)
	}
	err = archive.Walk(path, match, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		if err := processPage(ctx, r, filepath.Join(pathOut, f.FileHeader.Name), dst, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", arc), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
	return err
}

// processPage annotates a single page. "src" is the part of the source path
// (always including file name) relative to the original path. "dst" is the
// destination directory for the annotated page.
func processPage(ctx context.Context, r io.Reader, src, dst string, log *zap.Logger) (rerr error) {
	env := state.EnvFromContext(ctx)

	var outputName string

	log.Info("Annotation starting", zap.String("from", src))
	defer func(start time.Time) {
		// NOTE: a single bad page must not stop a batch.
		if r := recover(); r != nil {
			log.Error("Annotation ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("annotation panic: %v", r)
		} else {
			log.Info("Annotation completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	d, err := content.Prepare(ctx, r, src, log)
	if err != nil {
		return fmt.Errorf("unable to parse page source (%s): %w", src, err)
	}

	outputName = buildOutputPath(d, src, dst, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	sched := activation.NewManualScheduler()
	tracker := activation.NewTracker(activationConfig(env.Cfg), sched, log)
	engine := action.NewEngine(sched, time.Duration(env.Cfg.Document.Typing.FrameBudgetMs)*time.Millisecond, log)

	mgr := enhance.NewManager(&enhance.Context{
		Doc:     d,
		Cfg:     env.Cfg,
		Log:     log,
		Tracker: tracker,
		Engine:  engine,
		Sched:   sched,
	})
	defer mgr.Close()

	if err := mgr.Run(); err != nil {
		// processors contain their own failures, the page is still usable
		log.Warn("Annotation completed with errors", zap.String("source", src), zap.Error(err))
	}

	if env.Rpt != nil {
		storeDebugArtifacts(env, mgr, tracker, sched, d, src, log)
	}

	out, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	defer out.Close()
	if _, err := d.WriteTo(out); err != nil {
		return fmt.Errorf("unable to write annotated page: %w", err)
	}
	return nil
}

// storeDebugArtifacts adds the per-page health snapshot and a simulated
// activation trace to the debug report.
func storeDebugArtifacts(env *state.LocalEnv, mgr *enhance.Manager, tracker *activation.Tracker, sched *activation.ManualScheduler, d *content.Document, src string, log *zap.Logger) {
	tag := config.CleanFileName(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)))

	if data, err := yaml.Marshal(mgr.Health()); err != nil {
		log.Warn("Unable to snapshot page health", zap.String("source", src), zap.Error(err))
	} else {
		env.Rpt.StoreData("health-"+tag+".yaml", data)
	}

	trace := simulateActivation(mgr, tracker, sched, env.Cfg)
	if len(trace) == 0 {
		return
	}
	if data, err := yaml.Marshal(trace); err != nil {
		log.Warn("Unable to store activation trace", zap.String("source", src), zap.Error(err))
	} else {
		env.Rpt.StoreData("activation-"+tag+".yaml", data)
	}
}

func activationConfig(cfg *config.Config) activation.Config {
	a := cfg.Document.Activation
	return activation.Config{
		ReadingZone:       a.ReadingZone,
		ActivationDelay:   time.Duration(a.ActivationDelayMs) * time.Millisecond,
		DeactivationDelay: time.Duration(a.DeactivationDelayMs) * time.Millisecond,
		Hysteresis:        float64(a.HysteresisPx),
		TopExitMargin:     float64(a.TopExitMarginPx),
		ScrollThrottle:    activation.DefaultConfig().ScrollThrottle,
	}
}
