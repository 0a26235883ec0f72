package terminal

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gregLibert/chipcard/pkg/tlv"
	"gopkg.in/yaml.v3"
)

// Image describes the content of an emulated card:
//
//	name: demo girocard
//	t0: true
//	files:
//	  - fid: "2F02"
//	    hex: "5A 0A 67 28 ..."
//	  - fid: "A600"
//	    sfi: 1
//	    records: ["0102", "0304"]
//	  - fid: "A601"
//	    text: "Sparkasse München"
type Image struct {
	Name  string      `yaml:"name"`
	T0    bool        `yaml:"t0"`
	Files []ImageFile `yaml:"files"`
}

// ImageFile is one file of an Image. Exactly one of Hex, Text and Records is set.
// Text is stored ISO-8859-1 encoded.
type ImageFile struct {
	FID     string   `yaml:"fid"`
	SFI     byte     `yaml:"sfi"`
	Hex     string   `yaml:"hex"`
	Text    string   `yaml:"text"`
	Records []string `yaml:"records"`
}

// LoadImage reads a YAML card image from path.
func LoadImage(path string) (*Image, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load card image: %w", err)
	}
	img, err := ParseImage(raw)
	if err != nil {
		return nil, fmt.Errorf("load card image %s: %w", path, err)
	}
	return img, nil
}

// ParseImage decodes a YAML card image.
func ParseImage(raw []byte) (*Image, error) {
	var img Image
	if err := yaml.Unmarshal(raw, &img); err != nil {
		return nil, fmt.Errorf("parse card image: %w", err)
	}
	if len(img.Files) == 0 {
		return nil, fmt.Errorf("card image has no files")
	}
	return &img, nil
}

// Emulator builds the emulated card described by the image.
func (img *Image) Emulator() (*Emulator, error) {
	files := make([]File, 0, len(img.Files))

	for i, f := range img.Files {
		file, err := f.build()
		if err != nil {
			return nil, fmt.Errorf("file #%d (%s): %w", i+1, f.FID, err)
		}
		files = append(files, file)
	}

	emu, err := NewEmulator(files...)
	if err != nil {
		return nil, err
	}
	emu.T0 = img.T0
	return emu, nil
}

func (f ImageFile) build() (File, error) {
	fid, err := strconv.ParseUint(strings.TrimSpace(f.FID), 16, 16)
	if err != nil {
		return File{}, fmt.Errorf("invalid fid: %w", err)
	}
	out := File{FID: uint16(fid), SFI: f.SFI}

	set := 0
	for _, present := range []bool{f.Hex != "", f.Text != "", f.Records != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		return File{}, fmt.Errorf("exactly one of hex, text, records must be set")
	}

	switch {
	case f.Hex != "":
		out.Data, err = tlv.ParseHex(f.Hex)
	case f.Text != "":
		out.Data, err = tlv.EncodeLatin1(f.Text)
	default:
		out.Records = make([][]byte, 0, len(f.Records))
		for j, r := range f.Records {
			rec, rerr := tlv.ParseHex(r)
			if rerr != nil {
				return File{}, fmt.Errorf("record %d: %w", j+1, rerr)
			}
			out.Records = append(out.Records, rec)
		}
	}
	if err != nil {
		return File{}, err
	}
	return out, nil
}
