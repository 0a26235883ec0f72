package seccos

import (
	"fmt"
	"strings"

	"github.com/gregLibert/chipcard/pkg/tlv"
	"github.com/moov-io/bertlv"
)

// FIDGDO is the file identifier of EF.GDO (Global Data Objects), the
// transparent EF below the MF that holds the card's serial number.
const FIDGDO uint16 = 0x2F02

// GDO is the decoded content of EF.GDO.
type GDO struct {
	ICCSN          []byte `tlv:"5A" fmt:"bcd"`
	CardholderName []byte `tlv:"5F20" fmt:"latin1"`
	ExpirationDate []byte `tlv:"5F24" fmt:"date"`

	Unknown []bertlv.TLV `tlv:",unknown"`
}

// ParseGDO maps the raw content of EF.GDO. Trailing filler is ignored.
func ParseGDO(data []byte) (*GDO, error) {
	data = tlv.TrimPadding(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("EF.GDO is empty")
	}

	gdo := &GDO{}
	if err := tlv.Unmarshal(data, gdo); err != nil {
		return nil, fmt.Errorf("failed to map EF.GDO: %w", err)
	}
	if len(gdo.ICCSN) == 0 {
		return nil, fmt.Errorf("EF.GDO carries no ICCSN (tag 5A)")
	}
	return gdo, nil
}

// CardNumber returns the ICCSN as a digit string.
func (g *GDO) CardNumber() string {
	return tlv.BCD(g.ICCSN)
}

// Describe generates a report of the EF.GDO content.
func (g *GDO) Describe() string {
	var sb strings.Builder
	sb.WriteString("=== EF.GDO ===")
	tlv.WriteStructFields(&sb, "GDO", g)
	return sb.String()
}

// ReadCardID selects EF.GDO from the MF and decodes it.
func (c *Card) ReadCardID() (*GDO, error) {
	if err := c.SelectPath(FIDGDO); err != nil {
		return nil, err
	}

	data, err := c.ReadAll()
	if err != nil {
		return nil, err
	}

	c.log.Debug().Hex("gdo", data).Msg("EF.GDO read")
	return ParseGDO(data)
}
