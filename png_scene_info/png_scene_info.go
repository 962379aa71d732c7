// Package png_scene_info stores a shot's scene as a tEXt chunk inside its PNG image and
// reads it back.
package png_scene_info

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"previz_studio/entities"

	"github.com/rs/zerolog/log"
)

// SceneKeyword is the tEXt keyword the scene JSON is stored under.
const SceneKeyword = "previz-scene"

// 89 50 4E 47 0D 0A 1A 0A
var pngHeader = "\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"
var iHDRlength = 13

var (
	ErrWrongHeader = errors.New("wrong PNG header")
	ErrBadCRC      = errors.New("PNG chunk CRC mismatch")
	ErrNoScene     = errors.New("PNG has no embedded scene")
)

// Each chunk is a big-endian uint32 length, a 4 byte type, the data and the CRC32 of
// type and data.
type chunk struct {
	CType string
	Data  []byte
}

func readChunk(r io.Reader) (*chunk, error) {
	buf := make([]byte, 4)

	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	length := binary.BigEndian.Uint32(buf)

	typeAndData := make([]byte, 4+int(length))

	if _, err := io.ReadFull(r, typeAndData); err != nil {
		return nil, err
	}

	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	if crc32.ChecksumIEEE(typeAndData) != binary.BigEndian.Uint32(buf) {
		return nil, fmt.Errorf("%w in %q chunk", ErrBadCRC, typeAndData[:4])
	}

	return &chunk{CType: string(typeAndData[:4]), Data: typeAndData[4:]}, nil
}

func (c *chunk) writeTo(w *bytes.Buffer) {
	var buf [4]byte

	binary.BigEndian.PutUint32(buf[:], uint32(len(c.Data)))
	w.Write(buf[:])

	typeAndData := append([]byte(c.CType), c.Data...)
	w.Write(typeAndData)

	binary.BigEndian.PutUint32(buf[:], crc32.ChecksumIEEE(typeAndData))
	w.Write(buf[:])
}

type png struct {
	width  int
	height int
	chunks []*chunk
}

func parse(data []byte) (*png, error) {
	if len(data) < len(pngHeader) || string(data[:len(pngHeader)]) != pngHeader {
		return nil, ErrWrongHeader
	}

	r := bytes.NewReader(data[len(pngHeader):])

	var p png

	for {
		c, err := readChunk(r)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, err
		}

		p.chunks = append(p.chunks, c)

		if c.CType == "IEND" {
			break
		}
	}

	if len(p.chunks) == 0 || p.chunks[0].CType != "IHDR" {
		return nil, errors.New("missing IHDR chunk")
	}

	ihdr := p.chunks[0]
	if len(ihdr.Data) != iHDRlength {
		return nil, fmt.Errorf("invalid IHDR length: got %d - expected %d", len(ihdr.Data), iHDRlength)
	}

	p.width = int(binary.BigEndian.Uint32(ihdr.Data[0:4]))
	p.height = int(binary.BigEndian.Uint32(ihdr.Data[4:8]))

	if p.width <= 0 || p.height <= 0 {
		return nil, fmt.Errorf("invalid dimensions in IHDR: %dx%d", p.width, p.height)
	}

	return &p, nil
}

func (p *png) bytes() []byte {
	var out bytes.Buffer

	out.WriteString(pngHeader)

	for _, c := range p.chunks {
		c.writeTo(&out)
	}

	return out.Bytes()
}

// Embed returns a copy of pngData carrying params in a tEXt chunk right after IHDR.
// A scene embedded earlier is replaced.
func Embed(pngData []byte, params entities.SceneParams) ([]byte, error) {
	p, err := parse(pngData)
	if err != nil {
		return nil, err
	}

	sceneJSON, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	text := &chunk{CType: "tEXt", Data: append([]byte(SceneKeyword+"\x00"), sceneJSON...)}

	chunks := []*chunk{p.chunks[0], text}

	for _, c := range p.chunks[1:] {
		if _, ok := sceneText(c); ok {
			continue
		}

		chunks = append(chunks, c)
	}

	p.chunks = chunks

	return p.bytes(), nil
}

func sceneText(c *chunk) ([]byte, bool) {
	if c.CType != "tEXt" {
		return nil, false
	}

	prefix := []byte(SceneKeyword + "\x00")
	if !bytes.HasPrefix(c.Data, prefix) {
		return nil, false
	}

	return c.Data[len(prefix):], true
}

type extractorImpl struct {
	png *png
}

type Config struct {
	PngData []byte
}

func New(cfg Config) (Extractor, error) {
	if cfg.PngData == nil {
		return nil, errors.New("png data is nil")
	}

	p, err := parse(cfg.PngData)
	if err != nil {
		log.Printf("Error parsing PNG: %v", err)

		return nil, err
	}

	return &extractorImpl{png: p}, nil
}

func (e *extractorImpl) Width() int {
	return e.png.width
}

func (e *extractorImpl) Height() int {
	return e.png.height
}

func (e *extractorImpl) ExtractScene() (*entities.SceneParams, error) {
	for _, c := range e.png.chunks {
		text, ok := sceneText(c)
		if !ok {
			continue
		}

		params := entities.DefaultParams()

		if err := json.Unmarshal(text, &params); err != nil {
			return nil, fmt.Errorf("decode embedded scene: %w", err)
		}

		return &params, nil
	}

	return nil, ErrNoScene
}
