// Command chipcard reads data from SECCOS smart cards (German banking
// cards) through a PC/SC reader, or from an emulated card image.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gregLibert/chipcard/pkg/iso7816"
	"github.com/gregLibert/chipcard/pkg/seccos"
	"github.com/gregLibert/chipcard/pkg/terminal"
	"github.com/gregLibert/chipcard/pkg/tlv"
	"github.com/rs/zerolog"
)

const usage = `usage: chipcard [-config file.toml] [-image card.yaml] [-v] <command> [flags]

commands:
  readers     list PC/SC readers (or the files of the card image)
  read        READ BINARY from a transparent EF
  record      READ RECORD from a record EF
  gdo         read and decode EF.GDO
  challenge   GET CHALLENGE
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// app holds what every command needs once the global flags are parsed.
type app struct {
	cfg     config
	log     zerolog.Logger
	verbose bool
	stdout  io.Writer
	stderr  io.Writer
}

func run(args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("chipcard", flag.ContinueOnError)
	global.SetOutput(stderr)
	global.Usage = func() { fmt.Fprint(stderr, usage) }

	configPath := global.String("config", "", "TOML configuration file")
	imagePath := global.String("image", "", "YAML card image to emulate instead of a reader")
	verbose := global.Bool("v", false, "print the wire trace of the last exchange")

	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "chipcard: %v\n", err)
		return 1
	}
	if *imagePath != "" {
		cfg.Image = *imagePath
	}

	logger, closer, err := newLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "chipcard: %v\n", err)
		return 1
	}
	defer func() {
		_ = closer.Close()
	}()

	a := &app{cfg: cfg, log: logger, verbose: *verbose, stdout: stdout, stderr: stderr}

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "readers":
		err = a.readers()
	case "read":
		err = a.read(rest)
	case "record":
		err = a.record(rest)
	case "gdo":
		err = a.gdo()
	case "challenge":
		err = a.challenge(rest)
	default:
		fmt.Fprintf(stderr, "chipcard: unknown command %q\n", cmd)
		global.Usage()
		return 2
	}

	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		logger.Error().Err(err).Str("command", cmd).Msg("command failed")
		return 1
	}
	return 0
}

// connect opens the card: the emulated image when one is configured,
// otherwise the PC/SC reader.
func (a *app) connect() (*terminal.Session, func(), error) {
	opt := terminal.WithSessionLogger(a.log)

	if a.cfg.Image != "" {
		img, err := terminal.LoadImage(a.cfg.Image)
		if err != nil {
			return nil, nil, err
		}
		emu, err := img.Emulator()
		if err != nil {
			return nil, nil, fmt.Errorf("card image %s: %w", a.cfg.Image, err)
		}
		a.log.Info().Str("image", a.cfg.Image).Str("name", img.Name).Msg("using emulated card")
		return terminal.NewSession(emu, opt), func() {}, nil
	}

	reader, err := terminal.OpenReader(a.cfg.Reader, a.log)
	if err != nil {
		return nil, nil, err
	}
	release := func() {
		if err := reader.Close(); err != nil {
			a.log.Warn().Err(err).Msg("closing reader")
		}
	}
	return terminal.NewSession(reader, opt), release, nil
}

func (a *app) newCard(session *terminal.Session, opts ...seccos.Option) *seccos.Card {
	base := []seccos.Option{
		seccos.WithLogger(a.log),
		seccos.WithClass(a.cfg.Class),
		seccos.WithMaxResponseSize(a.cfg.MaxResponse),
	}
	return seccos.NewCard(session, append(base, opts...)...)
}

// trace prints the exchanges of the last command when -v is set.
func (a *app) trace(session *terminal.Session) {
	if a.verbose {
		fmt.Fprintln(a.stderr, session.LastTrace().String())
	}
}

func (a *app) readers() error {
	if a.cfg.Image != "" {
		img, err := terminal.LoadImage(a.cfg.Image)
		if err != nil {
			return err
		}
		emu, err := img.Emulator()
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "emulated card %q\n", img.Name)
		for _, fid := range emu.FIDs() {
			fmt.Fprintf(a.stdout, "  EF %04X\n", fid)
		}
		return nil
	}

	names, err := terminal.ListReaders()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return terminal.ErrNoReader
	}
	for i, name := range names {
		fmt.Fprintf(a.stdout, "%d: %s\n", i, name)
	}
	return nil
}

func (a *app) read(args []string) error {
	fs := a.flagSet("read")
	fidFlag := fs.String("fid", "", "EF to select first (hex, e.g. 2F02); empty reads the current EF")
	offset := fs.Uint("offset", 0, "offset of the first byte")
	maxSize := fs.Uint("max", 0, "number of bytes to read, 0 lets the card decide (up to 256)")
	all := fs.Bool("all", false, "read the whole file in 256-byte chunks")
	format := fs.String("format", "hex", "output format: hex, text or report")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *offset > 0xFFFF {
		return fmt.Errorf("offset %d out of range", *offset)
	}
	if *maxSize > 0xFF {
		return fmt.Errorf("max %d out of range, use -all for longer reads", *maxSize)
	}
	switch *format {
	case "hex", "text":
	case "report":
		if *all {
			return fmt.Errorf("report format needs a single READ BINARY, drop -all")
		}
	default:
		return fmt.Errorf("unknown format %q", *format)
	}

	session, release, err := a.connect()
	if err != nil {
		return err
	}
	defer release()

	card := a.newCard(session, seccos.WithClassifier(seccos.AllowEndOfFile))

	if *fidFlag != "" {
		fid, err := parseFID(*fidFlag)
		if err != nil {
			return err
		}
		if err := card.SelectPath(fid); err != nil {
			return err
		}
	}

	var data []byte
	if *all {
		data, err = card.ReadAll()
	} else {
		data, err = card.ReadBinary(seccos.Offset(uint16(*offset)), seccos.MaxSize(uint8(*maxSize)))
	}
	a.trace(session)
	if err != nil {
		return err
	}

	switch *format {
	case "text":
		fmt.Fprintln(a.stdout, tlv.Latin1(data))
	case "report":
		result, err := iso7816.NewReadBinaryResult(session.LastTrace())
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, result.Describe())
	default:
		fmt.Fprintf(a.stdout, "% X\n", data)
	}
	return nil
}

func (a *app) record(args []string) error {
	fs := a.flagSet("record")
	sfi := fs.Uint("sfi", 0, "short file identifier (1-30), 0 reads the current EF")
	rec := fs.Uint("rec", 1, "record number (1-254)")
	report := fs.Bool("report", false, "print the READ RECORD report instead of hex")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rec == 0 || *rec > 0xFE {
		return fmt.Errorf("record number %d out of range", *rec)
	}

	session, release, err := a.connect()
	if err != nil {
		return err
	}
	defer release()

	var opts []seccos.RecordOption
	if *sfi != 0 {
		opts = append(opts, seccos.SFI(byte(*sfi)))
	}

	data, err := a.newCard(session).ReadRecord(uint8(*rec), opts...)
	a.trace(session)
	if err != nil {
		return err
	}

	if *report {
		result, err := iso7816.NewReadRecordResult(session.LastTrace())
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, result.Describe())
		return nil
	}
	fmt.Fprintf(a.stdout, "% X\n", data)
	return nil
}

func (a *app) gdo() error {
	session, release, err := a.connect()
	if err != nil {
		return err
	}
	defer release()

	gdo, err := a.newCard(session).ReadCardID()
	a.trace(session)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.stdout, "Card number: %s\n", gdo.CardNumber())
	fmt.Fprintln(a.stdout, gdo.Describe())
	return nil
}

func (a *app) challenge(args []string) error {
	fs := a.flagSet("challenge")
	n := fs.Uint("n", uint(terminal.DefaultChallengeSize), "number of random bytes (1-255)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *n == 0 || *n > 0xFF {
		return fmt.Errorf("challenge size %d out of range", *n)
	}

	session, release, err := a.connect()
	if err != nil {
		return err
	}
	defer release()

	data, err := a.newCard(session).GetChallenge(uint8(*n))
	a.trace(session)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "% X\n", data)
	return nil
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parseFID(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToUpper(strings.TrimSpace(s)), "0X"), 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid file identifier %q: %w", s, err)
	}
	return uint16(v), nil
}
