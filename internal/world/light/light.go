// Package light хранит освещение вокселя в одном байте.
//
// Старший полубайт: небесный свет (sky light), младший: свет от блоков
// (block light). Оба канала лежат в диапазоне [0, 15] и независимы друг от друга.
package light

// MaxLevel максимальный уровень любого из каналов.
const MaxLevel = 15

const (
	skyShift  = 4
	blockMask = 0x0F
	skyMask   = 0xF0
)

// Packed: упакованная ячейка освещения.
type Packed uint8

// FullSky ячейка под открытым небом без источников света.
const FullSky = Packed(MaxLevel << skyShift)

// New упаковывает два канала. Значения обрезаются до 4 бит.
func New(sky, block uint8) Packed {
	return Packed((sky&blockMask)<<skyShift | block&blockMask)
}

// Sky возвращает небесный свет.
func (p Packed) Sky() uint8 {
	return uint8(p) >> skyShift
}

// Block возвращает свет от блоков.
func (p Packed) Block() uint8 {
	return uint8(p) & blockMask
}

// SetSky устанавливает небесный свет, не трогая block light.
func (p *Packed) SetSky(v uint8) {
	*p = Packed(uint8(*p)&blockMask | (v&blockMask)<<skyShift)
}

// SetBlock устанавливает block light, не трогая небесный свет.
func (p *Packed) SetBlock(v uint8) {
	*p = Packed(uint8(*p)&skyMask | v&blockMask)
}

// WithSky возвращает копию с другим небесным светом.
func (p Packed) WithSky(v uint8) Packed {
	p.SetSky(v)
	return p
}

// WithBlock возвращает копию с другим block light.
func (p Packed) WithBlock(v uint8) Packed {
	p.SetBlock(v)
	return p
}

// Max возвращает больший из двух каналов.
func (p Packed) Max() uint8 {
	if s, b := p.Sky(), p.Block(); s > b {
		return s
	}
	return p.Block()
}

// Brightness нормализованная яркость Max()/15 в [0, 1].
func (p Packed) Brightness() float32 {
	return float32(p.Max()) / MaxLevel
}
