package mesh

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/annel0/voxelcore/internal/vec"
	"github.com/annel0/voxelcore/internal/world"
	"github.com/annel0/voxelcore/internal/world/block"
)

// Формат отладочного дампа (после распаковки zstd), little-endian:
//
//	magic "VXMD" | version u16 | stride u16 | chunk x i32 | chunk z i32 |
//	solid floats u32 | fluid floats u32 | solid []f32 | fluid []f32
const (
	dumpMagic   = "VXMD"
	dumpVersion = 1
)

// ErrBadDump файл не является дампом меша или повреждён
var ErrBadDump = errors.New("mesh: bad dump")

// Dump распакованный дамп меша
type Dump struct {
	Coords vec.Vec2
	Solid  []float32
	Fluid  []float32
}

// Vertices число вершин в обоих потоках
func (d *Dump) Vertices() int {
	return (len(d.Solid) + len(d.Fluid)) / Stride
}

type dumpHeader struct {
	Magic   [4]byte
	Version uint16
	Stride  uint16
	X, Z    int32
	NSolid  uint32
	NFluid  uint32
}

// WriteDump пишет меш в w, сжимая его zstd.
func WriteDump(w io.Writer, m *ChunkMesh) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}

	solid, fluid := m.SolidFloats(), m.FluidFloats()
	hdr := dumpHeader{
		Version: dumpVersion,
		Stride:  Stride,
		X:       int32(m.Coords.X),
		Z:       int32(m.Coords.Z),
		NSolid:  uint32(len(solid)),
		NFluid:  uint32(len(fluid)),
	}
	copy(hdr.Magic[:], dumpMagic)

	bw := bufio.NewWriter(enc)
	if err := binary.Write(bw, binary.LittleEndian, &hdr); err != nil {
		enc.Close()
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, solid); err != nil {
		enc.Close()
		return err
	}
	if err := binary.Write(bw, binary.LittleEndian, fluid); err != nil {
		enc.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}

// ReadDump читает дамп, записанный WriteDump.
func ReadDump(r io.Reader) (*Dump, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	var hdr dumpHeader
	if err := binary.Read(dec, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadDump, err)
	}
	if string(hdr.Magic[:]) != dumpMagic || hdr.Version != dumpVersion || hdr.Stride != Stride {
		return nil, fmt.Errorf("%w: magic=%q version=%d stride=%d", ErrBadDump, hdr.Magic[:], hdr.Version, hdr.Stride)
	}
	// Больше, чем шесть граней у каждого блока чанка, не бывает
	const limit = uint32(world.ChunkVolume) * uint32(block.FaceCount) * VerticesPerFace * Stride
	if hdr.NSolid > limit || hdr.NFluid > limit || hdr.NSolid%Stride != 0 || hdr.NFluid%Stride != 0 {
		return nil, fmt.Errorf("%w: sizes %d/%d", ErrBadDump, hdr.NSolid, hdr.NFluid)
	}

	d := &Dump{
		Coords: vec.Vec2{X: int(hdr.X), Z: int(hdr.Z)},
		Solid:  make([]float32, hdr.NSolid),
		Fluid:  make([]float32, hdr.NFluid),
	}
	if err := binary.Read(dec, binary.LittleEndian, d.Solid); err != nil {
		return nil, fmt.Errorf("%w: solid: %v", ErrBadDump, err)
	}
	if err := binary.Read(dec, binary.LittleEndian, d.Fluid); err != nil {
		return nil, fmt.Errorf("%w: fluid: %v", ErrBadDump, err)
	}
	return d, nil
}

// DumpFileName имя файла дампа для чанка
func DumpFileName(coords vec.Vec2) string {
	return fmt.Sprintf("chunk_%d_%d.vxm.zst", coords.X, coords.Z)
}

// SaveDump пишет дамп меша в каталог dir и возвращает путь к файлу.
func SaveDump(dir string, m *ChunkMesh) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, DumpFileName(m.Coords))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := WriteDump(f, m); err != nil {
		f.Close()
		return "", fmt.Errorf("dump %s: %w", path, err)
	}
	return path, f.Close()
}

// LoadDump читает дамп из файла
func LoadDump(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadDump(f)
}
