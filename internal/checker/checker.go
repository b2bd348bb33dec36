// Package checker implements the built-in special judges a problem can
// select: an exact file comparison, a whitespace-tolerant auto comparison
// with float epsilon matching, and adapters for external testlib-style and
// C-ABI checker binaries. Each implements sandbox.Checker so the sandbox
// service can call it without depending on this package directly.
package checker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"zroj/pkg/errors"
)

// FileCmp requires the output to match the answer file byte-for-byte,
// line by line.
type FileCmp struct{}

func (FileCmp) Check(ctx context.Context, outputPath, answerPath, inputPath string) (bool, string, error) {
	return compareByLine(outputPath, answerPath, func(lineNo int, out, ans string) (bool, string) {
		if out == ans {
			return true, ""
		}
		return false, fmt.Sprintf("differs at line %d", lineNo)
	})
}

// AutoCmp tolerates surrounding whitespace and token splitting; numeric
// tokens are compared within an absolute or relative epsilon instead of
// requiring an exact string match.
type AutoCmp struct {
	FloatAbsEps float64
	FloatRelEps float64
}

func (c AutoCmp) Check(ctx context.Context, outputPath, answerPath, inputPath string) (bool, string, error) {
	return compareByLine(outputPath, answerPath, func(lineNo int, out, ans string) (bool, string) {
		outTok := strings.Fields(out)
		ansTok := strings.Fields(ans)
		if len(outTok) != len(ansTok) {
			return false, fmt.Sprintf("incorrect number of tokens at line %d", lineNo)
		}
		for i := range outTok {
			if outTok[i] == ansTok[i] {
				continue
			}
			ansF, errAns := strconv.ParseFloat(ansTok[i], 64)
			outF, errOut := strconv.ParseFloat(outTok[i], 64)
			if errAns != nil || errOut != nil {
				return false, fmt.Sprintf("token %d at line %d does not match", i, lineNo)
			}
			diff := ansF - outF
			if diff < 0 {
				diff = -diff
			}
			absAns, absOut := ansF, outF
			if absAns < 0 {
				absAns = -absAns
			}
			if absOut < 0 {
				absOut = -absOut
			}
			maxAbs := maxFloat(absAns, absOut)
			if diff < c.FloatAbsEps {
				continue
			}
			if c.FloatRelEps > 0 && diff/maxFloat(maxAbs, c.FloatRelEps) < c.FloatRelEps {
				continue
			}
			return false, fmt.Sprintf("token %d at line %d out of tolerance", i, lineNo)
		}
		return true, ""
	})
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func compareByLine(outputPath, answerPath string, f func(lineNo int, out, ans string) (bool, string)) (bool, string, error) {
	fout, err := os.Open(outputPath)
	if err != nil {
		return false, "", errors.Wrap(err, errors.CheckerLoad)
	}
	defer fout.Close()
	fans, err := os.Open(answerPath)
	if err != nil {
		return false, "", errors.Wrap(err, errors.CheckerLoad)
	}
	defer fans.Close()

	outScan := bufio.NewScanner(fout)
	ansScan := bufio.NewScanner(fans)
	outScan.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	ansScan.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	line := 0
	for outScan.Scan() {
		line++
		if !ansScan.Scan() {
			return false, "incorrect number of lines", nil
		}
		ok, msg := f(line, outScan.Text(), ansScan.Text())
		if !ok {
			return false, msg, nil
		}
	}
	if ansScan.Scan() {
		return false, "incorrect number of lines", nil
	}
	return true, "correct.", nil
}
