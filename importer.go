package sss

import (
	"bufio"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"nickandperla.net/sss/hensel"
)

// ImportCandidates collects ships from text holding sss records and standard
// RLE blocks ("x = m, y = n, rule = R" followed by the body up to "!"). RLE
// blocks without a rule are B3/S23. Imported ships still need analysing.
func ImportCandidates(r io.Reader, log logrus.FieldLogger) ([]Ship, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	var out []Ship
	var body strings.Builder
	rule := ""
	inRLE := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if inRLE {
			if ship, err := ParseShip(line); err == nil {
				log.WithField("ship", ship.String()).Warn("Ship record inside an unfinished RLE block, dropping the block")
				out = append(out, *ship)
				inRLE = false
				continue
			}
			if strings.HasPrefix(line, "#") {
				continue
			}
			body.WriteString(line)
			if strings.Contains(line, "!") {
				out = append(out, Ship{Rule: rule, RLE: body.String()})
				inRLE = false
			}
			continue
		}

		if ship, err := ParseShip(line); err == nil {
			out = append(out, *ship)
			continue
		}
		if strings.HasPrefix(line, "x = ") || strings.HasPrefix(line, "x=") {
			parts := strings.Split(line, "=")
			switch len(parts) {
			case 4:
				rule = strings.TrimSpace(parts[3])
			case 3:
				rule = "B3/S23"
			default:
				log.WithField("line", line).Warn("Failed to recognise RLE header")
				continue
			}
			body.Reset()
			inRLE = true
		}
	}
	if inRLE {
		log.WithField("rle", body.String()).Warn("RLE block without a terminating '!'")
	}
	return out, scanner.Err()
}

// AnalyzeCandidates measures each imported ship in its own rule. Ships in
// rules that are not isotropic two-state rules, B0 rules and patterns that
// never repeat are logged and skipped.
func AnalyzeCandidates(o Oracle, candidates []Ship, maxGen int, log logrus.FieldLogger) []Ship {
	if log == nil {
		log = logrus.StandardLogger()
	}
	zero, _ := hensel.Lookup("0")
	out := make([]Ship, 0, len(candidates))
	for _, cand := range candidates {
		entry := log.WithFields(logrus.Fields{"rule": cand.Rule, "rle": cand.RLE})
		rule, err := hensel.ParseRule(cand.Rule)
		if err != nil {
			entry.WithError(err).Warn("Ignoring ship in non-isotropic rule")
			continue
		}
		if rule.Birth.Has(zero) {
			entry.Debug("Ignoring B0 ship")
			continue
		}
		cells, err := DecodeRLE(cand.RLE)
		if err != nil {
			entry.WithError(err).Warn("Ignoring ship with undecodable pattern")
			continue
		}
		a, err := AnalyzeShip(o, cells, rule.String(), maxGen)
		if err != nil {
			entry.WithError(err).Warn("Ship analysis failed")
			continue
		}
		out = append(out, Ship{
			MinPop: a.MinPop,
			Rule:   rule.String(),
			DX:     a.DX,
			DY:     a.DY,
			Period: a.Period,
			RLE:    EncodeRLE(a.Phase),
		})
	}
	return out
}
