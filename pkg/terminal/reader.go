package terminal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ebfe/scard"
	"github.com/rs/zerolog"
)

// ErrNoReader is returned when PC/SC reports no reader, or none matching
// the configured name.
var ErrNoReader = errors.New("no smart card reader found")

// ReaderConfig selects and configures the PC/SC reader.
type ReaderConfig struct {
	// Name selects the first reader whose name contains it. Empty picks the first reader.
	Name string
	// Share is "shared" (default) or "exclusive".
	Share string
	// Protocol is "any" (default), "t0" or "t1".
	Protocol string
}

// Reader is a card connected through PC/SC. It implements iso7816.Transmitter.
type Reader struct {
	ctx  *scard.Context
	card *scard.Card
	name string
	log  zerolog.Logger
}

// ListReaders returns the names of the PC/SC readers attached to the host.
func ListReaders() ([]string, error) {
	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establishing PC/SC context: %w", err)
	}
	defer func() {
		_ = ctx.Release()
	}()

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, fmt.Errorf("listing readers: %w", err)
	}
	return readers, nil
}

// OpenReader establishes a PC/SC context and connects to the card in the
// configured reader.
func OpenReader(cfg ReaderConfig, log zerolog.Logger) (*Reader, error) {
	share, err := parseShareMode(cfg.Share)
	if err != nil {
		return nil, err
	}
	proto, err := parseProtocol(cfg.Protocol)
	if err != nil {
		return nil, err
	}

	ctx, err := scard.EstablishContext()
	if err != nil {
		return nil, fmt.Errorf("establishing PC/SC context: %w", err)
	}

	readers, err := ctx.ListReaders()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("listing readers: %w", err), ctx.Release())
	}

	name, err := pickReader(readers, cfg.Name)
	if err != nil {
		return nil, errors.Join(err, ctx.Release())
	}

	card, err := ctx.Connect(name, share, proto)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("connecting to card in %q: %w", name, err), ctx.Release())
	}

	log.Info().Str("reader", name).Msg("card connected")

	return &Reader{ctx: ctx, card: card, name: name, log: log}, nil
}

// Name returns the name of the connected reader.
func (r *Reader) Name() string {
	return r.name
}

// Transmit sends one raw APDU.
func (r *Reader) Transmit(cmd []byte) ([]byte, error) {
	resp, err := r.card.Transmit(cmd)
	if err != nil {
		return nil, err
	}
	r.log.Trace().Hex("c", cmd).Hex("r", resp).Msg("pcsc")
	return resp, nil
}

// Close disconnects the card, leaving it in the reader, and releases the context.
func (r *Reader) Close() error {
	var errs []error
	if err := r.card.Disconnect(scard.LeaveCard); err != nil {
		errs = append(errs, fmt.Errorf("disconnecting card: %w", err))
	}
	if err := r.ctx.Release(); err != nil {
		errs = append(errs, fmt.Errorf("releasing context: %w", err))
	}
	return errors.Join(errs...)
}

func pickReader(readers []string, want string) (string, error) {
	if len(readers) == 0 {
		return "", ErrNoReader
	}
	if want == "" {
		return readers[0], nil
	}
	for _, r := range readers {
		if strings.Contains(strings.ToLower(r), strings.ToLower(want)) {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: no reader matches %q", ErrNoReader, want)
}

func parseShareMode(s string) (scard.ShareMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shared":
		return scard.ShareShared, nil
	case "exclusive":
		return scard.ShareExclusive, nil
	default:
		return 0, fmt.Errorf("unknown share mode %q", s)
	}
}

// Forcing T=0 or T=1 avoids "Parameter Incorrect" errors on some readers.
func parseProtocol(s string) (scard.Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any":
		return scard.ProtocolT0 | scard.ProtocolT1, nil
	case "t0", "t=0":
		return scard.ProtocolT0, nil
	case "t1", "t=1":
		return scard.ProtocolT1, nil
	default:
		return 0, fmt.Errorf("unknown protocol %q", s)
	}
}
