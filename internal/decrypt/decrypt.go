// Package decrypt invokes an external mp4decrypt-compatible binary to
// remove CENC encryption from a downloaded segment. The binary is always
// given file paths, never stdin/stdout pipes: pipe handling is
// inconsistent across mp4decrypt builds and produces a characteristic
// "cannot open input file (-)" failure, so this contract avoids pipes
// entirely.
package decrypt

import (
	"bytes"
	"context"
	"dash2hlsd/internal/errs"
	"dash2hlsd/internal/logger"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"time"
)

const defaultTimeout = 30 * time.Second

// execCommandContext is overridden in tests to run a fake binary instead
// of a real mp4decrypt.
var execCommandContext = exec.CommandContext

// Decryptor runs a configured mp4decrypt binary against CENC-encrypted
// segment bytes.
type Decryptor struct {
	binaryPath string
	timeout    time.Duration
	logger     logger.Logger
}

// New builds a Decryptor. binaryPath defaults to "mp4decrypt" on the PATH
// when empty.
func New(binaryPath string, log logger.Logger) *Decryptor {
	if binaryPath == "" {
		binaryPath = "mp4decrypt"
	}
	return &Decryptor{binaryPath: binaryPath, timeout: defaultTimeout, logger: log}
}

// Decrypt writes cipherBytes to a temp file, invokes the binary with one
// --key kid:key argument per keyMap entry, and returns the output file's
// bytes. Both temp files are removed on every exit path.
func (d *Decryptor) Decrypt(ctx context.Context, cipherBytes []byte, keyMap map[string]string) ([]byte, error) {
	in, err := os.CreateTemp("", "dash2hlsd-in-*.m4s")
	if err != nil {
		return nil, errs.Decryption("temp_file", err)
	}
	inPath := in.Name()
	defer os.Remove(inPath)

	if _, err := in.Write(cipherBytes); err != nil {
		in.Close()
		return nil, errs.Decryption("temp_file", err)
	}
	if err := in.Close(); err != nil {
		return nil, errs.Decryption("temp_file", err)
	}

	outFile, err := os.CreateTemp("", "dash2hlsd-out-*.m4s")
	if err != nil {
		return nil, errs.Decryption("temp_file", err)
	}
	outPath := outFile.Name()
	outFile.Close()
	defer os.Remove(outPath)

	args := buildArgs(keyMap, inPath, outPath)

	runCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd := execCommandContext(runCtx, d.binaryPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() != nil {
			return nil, errs.Decryption("timeout", err)
		}
		excerpt := excerpt(stderr.Bytes(), 512)
		d.logger.Warnw("mp4decrypt failed", "exit_code", exitCode(err), "stderr", excerpt, "keyMap", keyMap)
		return nil, errs.Decryption(fmt.Sprintf("exit_code=%v stderr=%q", exitCode(err), excerpt), err)
	}

	plain, err := os.ReadFile(outPath)
	if err != nil {
		return nil, errs.Decryption("read_output", err)
	}
	if len(plain) == 0 {
		return nil, errs.Decryption("empty_output", nil)
	}
	return plain, nil
}

// buildArgs orders --key arguments by KID so invocations are deterministic
// and reproducible in logs and tests.
func buildArgs(keyMap map[string]string, inPath, outPath string) []string {
	kids := make([]string, 0, len(keyMap))
	for kid := range keyMap {
		kids = append(kids, kid)
	}
	sort.Strings(kids)

	args := make([]string, 0, len(kids)*2+2)
	for _, kid := range kids {
		args = append(args, "--key", fmt.Sprintf("%s:%s", kid, keyMap[kid]))
	}
	args = append(args, inPath, outPath)
	return args
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if ok := asExitError(err, &exitErr); ok {
		return exitErr.ExitCode()
	}
	return -1
}

func asExitError(err error, target **exec.ExitError) bool {
	if e, ok := err.(*exec.ExitError); ok {
		*target = e
		return true
	}
	return false
}

func excerpt(b []byte, max int) string {
	if len(b) > max {
		b = b[:max]
	}
	return string(b)
}
