package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testImage = "pkg/terminal/testdata/girocard.yaml"

func runCLI(args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRun_Commands(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"Readers from image", []string{"readers"}, "EF 2F02"},
		{"Read binary", []string{"read", "-fid", "2F02", "-max", "2"}, "5A 0A\n"},
		{"Read binary at offset", []string{"read", "-fid", "0x2f02", "-offset", "2", "-max", "4"}, "67 28 00 12\n"},
		{"Read text", []string{"read", "-fid", "A610", "-all", "-format", "text"}, "Kontoinhaber: Jörg Müller\n"},
		{"Read report past EOF", []string{"read", "-fid", "2F02", "-offset", "16", "-max", "8", "-format", "report"}, "[~~] End of file reached"},
		{"Record", []string{"record", "-sfi", "3", "-rec", "2"}, "44 45 37 30 30 35 30 30 30 30\n"},
		{"Record report", []string{"record", "-sfi", "25", "-report"}, "=== READ RECORD"},
		{"GDO", []string{"gdo"}, "Card number: 6728001234567890123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-image", testImage}, tt.args...)
			code, stdout, stderr := runCLI(args...)

			assert.Equal(t, 0, code, stderr)
			assert.Contains(t, stdout, tt.want)
		})
	}
}

func TestRun_Challenge(t *testing.T) {
	code, stdout, _ := runCLI("-image", testImage, "challenge", "-n", "4")
	assert.Equal(t, 0, code)
	assert.Len(t, strings.Fields(stdout), 4)
}

func TestRun_VerboseTrace(t *testing.T) {
	code, _, stderr := runCLI("-image", testImage, "-v", "read", "-fid", "2F02", "-max", "2")
	assert.Equal(t, 0, code)
	assert.Contains(t, stderr, "#1 C> 00 B0 00 00 02")
	assert.Contains(t, stderr, "#1 R< 5A 0A 90 00")
}

func TestRun_ConfigFile(t *testing.T) {
	code, stdout, stderr := runCLI("-config", "testdata/chipcard.toml", "gdo")
	assert.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "6728001234567890123")
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code int
	}{
		{"No command", nil, 2},
		{"Unknown command", []string{"-image", testImage, "erase"}, 2},
		{"Bad global flag", []string{"-nope"}, 2},
		{"Bad format", []string{"-image", testImage, "read", "-format", "xml"}, 1},
		{"Max too large", []string{"-image", testImage, "read", "-max", "300"}, 1},
		{"Bad FID", []string{"-image", testImage, "read", "-fid", "2G02"}, 1},
		{"Unknown file", []string{"-image", testImage, "read", "-fid", "1234"}, 1},
		{"Missing record", []string{"-image", testImage, "record", "-sfi", "3", "-rec", "9"}, 1},
		{"Record zero", []string{"-image", testImage, "record", "-rec", "0"}, 1},
		{"Challenge size", []string{"-image", testImage, "challenge", "-n", "0"}, 1},
		{"Missing image", []string{"-image", "testdata/none.yaml", "gdo"}, 1},
		{"Missing config", []string{"-config", "testdata/none.toml", "gdo"}, 1},
		{"Report with -all", []string{"-image", testImage, "read", "-all", "-format", "report"}, 1},
		{"Subcommand help", []string{"-image", testImage, "read", "-h"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, _ := runCLI(tt.args...)
			assert.Equal(t, tt.code, code)
		})
	}
}
