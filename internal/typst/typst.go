package typst

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"

	ierr "github.com/academyhub/paycore/internal/errors"
	"github.com/academyhub/paycore/internal/logger"
)

// Compiler renders Typst templates to PDF through the typst CLI
type Compiler interface {
	// CompileTemplate renders templateName with data exposed to the template as sys.inputs.path
	CompileTemplate(ctx context.Context, templateName string, data []byte) ([]byte, error)
}

type compiler struct {
	logger      *logger.Logger
	binaryPath  string
	fontDir     string
	templateDir string
	workDir     string
}

// NewCompiler creates a new Typst compiler
func NewCompiler(logger *logger.Logger, binaryPath, fontDir, templateDir, workDir string) Compiler {
	return &compiler{
		logger:      logger,
		binaryPath:  binaryPath,
		fontDir:     fontDir,
		templateDir: templateDir,
		workDir:     workDir,
	}
}

// DefaultCompiler creates a compiler with default settings
func DefaultCompiler(logger *logger.Logger) Compiler {
	return NewCompiler(logger, "typst", "assets/fonts", "internal/typst/templates", os.TempDir())
}

func (c *compiler) CompileTemplate(ctx context.Context, templateName string, data []byte) ([]byte, error) {
	templatePath := filepath.Join(c.templateDir, templateName)
	if _, err := os.Stat(templatePath); err != nil {
		return nil, ierr.WithError(err).
			WithMessagef("template not found: %s", templatePath).
			WithHint("Document template is missing").
			Mark(ierr.ErrSystem)
	}

	dir, err := os.MkdirTemp(c.workDir, "typst-*")
	if err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to create work directory").
			WithHint("Document rendering failed").
			Mark(ierr.ErrSystem)
	}
	defer os.RemoveAll(dir)

	dataPath := filepath.Join(dir, "data.json")
	if err := os.WriteFile(dataPath, data, 0o600); err != nil {
		return nil, ierr.WithError(err).
			WithMessage("failed to write template data").
			WithHint("Document rendering failed").
			Mark(ierr.ErrSystem)
	}

	outputPath := filepath.Join(dir, "out.pdf")
	args := []string{"compile", "--root", "/"}
	if c.fontDir != "" {
		args = append(args, "--font-path", c.fontDir)
	}
	args = append(args, "--input", "path="+dataPath, templatePath, outputPath)

	cmd := exec.CommandContext(ctx, c.binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		c.logger.Errorw("typst compilation failed", "template", templateName, "stderr", stderr.String())
		return nil, ierr.WithError(err).
			WithMessage("typst compilation failed").
			WithHint("Document rendering failed").
			WithReportableDetails(map[string]any{
				"template": templateName,
			}).
			Mark(ierr.ErrSystem)
	}

	return os.ReadFile(outputPath)
}
