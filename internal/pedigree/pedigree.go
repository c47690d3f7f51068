// Package pedigree reads pedigree (family) files in the four dialects
// spec.md §6 names: "ped" (plain PLINK-style six columns), "alt"
// (CMMS-lab extended columns), "cmms", and "mip" (the Clinical Genomics
// pipeline's own dialect). All four share the same leading six columns
// and are read the same way: any number of trailing columns is
// tolerated and ignored, whatever the dialect.
//
// This is an out-of-core-scope collaborator (spec.md §1/§6): the core
// pipeline only consumes the resulting *model.Family.
package pedigree

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/clinical-genomics-lund/genmod/internal/model"
)

// Dialect is a recognized --family-type value.
type Dialect string

const (
	DialectPed  Dialect = "ped"
	DialectAlt  Dialect = "alt"
	DialectCMMS Dialect = "cmms"
	DialectMIP  Dialect = "mip"
)

// ParseError reports a malformed pedigree row with its line number.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pedigree line %d: %s", e.Line, e.Message)
}

// ReadFile parses a pedigree file of the given dialect into a Family.
// Only the first family id encountered is returned, matching the
// single-family scope of spec.md's pipeline (the Python original's
// FamilyParser.families.popitem() behavior, preserved deliberately).
func ReadFile(path string, dialect Dialect) (*model.Family, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pedigree file: %w", err)
	}
	defer f.Close()
	return Read(f, dialect)
}

// Read parses a pedigree stream of the given dialect into a Family.
func Read(r io.Reader, dialect Dialect) (*model.Family, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var fam *model.Family
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 6 {
			return nil, &ParseError{Line: lineNo, Message: fmt.Sprintf("expected at least 6 tab-separated columns (dialect %s), got %d", dialect, len(fields))}
		}

		ind, err := parseRow(fields, dialect)
		if err != nil {
			return nil, &ParseError{Line: lineNo, Message: err.Error()}
		}

		if fam == nil {
			fam = model.NewFamily(ind.FamilyID)
		} else if fam.FamilyID != ind.FamilyID {
			// Single-family scope: ignore rows for any subsequent family,
			// matching get_family's "first family wins" behavior.
			continue
		}
		fam.AddIndividual(ind)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pedigree file: %w", err)
	}
	if fam == nil {
		return nil, fmt.Errorf("pedigree file contains no individuals")
	}
	return fam, nil
}

// parseRow extracts the six leading columns common to every dialect:
// family_id, ind_id, father_id, mother_id, sex, phenotype. Extra
// trailing columns (alt/cmms add a handful, mip adds more) are
// recognized but not required or interpreted, matching the "only the
// interface the core consumes" scope of spec.md §6.
func parseRow(fields []string, dialect Dialect) (*model.Individual, error) {
	familyID, indID, fatherID, motherID, sexField, phenoField := fields[0], fields[1], fields[2], fields[3], fields[4], fields[5]

	if indID == "" {
		return nil, fmt.Errorf("empty individual id")
	}

	var sex model.Sex
	switch sexField {
	case "1":
		sex = model.SexMale
	case "2":
		sex = model.SexFemale
	default:
		sex = model.SexUnknown
	}

	var pheno model.Phenotype
	switch phenoField {
	case "1":
		pheno = model.PhenotypeUnaffected
	case "2":
		pheno = model.PhenotypeAffected
	default:
		pheno = model.PhenotypeUnknown
	}

	return &model.Individual{
		IndID:     indID,
		FamilyID:  familyID,
		FatherID:  fatherID,
		MotherID:  motherID,
		Sex:       sex,
		Phenotype: pheno,
	}, nil
}

// ParseDialect validates a --family-type flag value.
func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectPed, DialectAlt, DialectCMMS, DialectMIP:
		return Dialect(s), nil
	default:
		return "", fmt.Errorf("unknown family type %q (want ped, alt, cmms, or mip)", s)
	}
}
