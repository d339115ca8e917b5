package block

import (
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// BlockID представляет идентификатор типа блока.
// Нулевое значение: воздух.
type BlockID uint8

// Константы ID блоков. Перечисление закрытое: новые типы добавляются только здесь
// и в таблице свойств (table.go).
const (
	AirBlockID BlockID = iota // 0
	StoneBlockID
	DirtBlockID
	GrassBlockID
	SandBlockID
	GravelBlockID
	BedrockBlockID
	LogBlockID
	PlanksBlockID
	CobblestoneBlockID
	WaterBlockID
	GlassBlockID
	LeavesBlockID
	IceBlockID
	GlowstoneBlockID
	SnowBlockID

	blockCount // всегда последний
)

// Face задаёт грань куба. Порядок совпадает с индексами Properties.Tiles.
type Face uint8

const (
	FaceEast   Face = iota // +X
	FaceWest               // -X
	FaceTop                // +Y
	FaceBottom             // -Y
	FaceSouth              // +Z
	FaceNorth              // -Z

	FaceCount
)

// Properties неизменяемые свойства типа блока.
//
// Биты классификации независимы: вода прозрачна и не твёрдая,
// стекло и листва прозрачны, но твёрдые.
type Properties struct {
	Name          string
	Solid         bool       // твёрдый: участвует в отсечении граней и AO
	Transparent   bool       // рисуется в прозрачном проходе, пропускает свет
	LightEmission uint8      // 0..15
	LightFilter   uint8      // на сколько ослабляет проходящий свет
	Tint          mgl32.Vec3 // базовый цвет
	TintTopOnly   bool       // тонировать только верхнюю грань (трава)
	Tiles         [FaceCount]uint16
}

var registry [blockCount]Properties

var byName = make(map[string]BlockID)

// register добавляет свойства блока в таблицу
func register(id BlockID, props Properties) {
	registry[id] = props
	byName[strings.ToLower(props.Name)] = id
}

// Get возвращает свойства для указанного ID
func Get(id BlockID) (Properties, bool) {
	if !IsValid(id) {
		return Properties{}, false
	}
	return registry[id], true
}

// IsValid проверяет, является ли ID допустимым идентификатором блока
func IsValid(id BlockID) bool {
	return id < blockCount
}

// ByName ищет блок по имени без учёта регистра.
func ByName(name string) (BlockID, bool) {
	id, ok := byName[strings.ToLower(name)]
	return id, ok
}

// All возвращает все зарегистрированные ID по возрастанию.
func All() []BlockID {
	ids := make([]BlockID, 0, blockCount)
	for id := BlockID(0); id < blockCount; id++ {
		ids = append(ids, id)
	}
	return ids
}

// props возвращает свойства; для неизвестных ID: свойства воздуха.
func (id BlockID) props() *Properties {
	if id >= blockCount {
		return &registry[AirBlockID]
	}
	return &registry[id]
}

// IsAir возвращает true для воздуха и для неизвестных ID.
func (id BlockID) IsAir() bool {
	return id == AirBlockID || id >= blockCount
}

// IsSolid сообщает, твёрдый ли блок.
func (id BlockID) IsSolid() bool {
	return id.props().Solid
}

// IsTransparent сообщает, прозрачный ли блок.
func (id BlockID) IsTransparent() bool {
	return id.props().Transparent
}

// IsOpaque = твёрдый и не прозрачный. Такие блоки закрывают грани соседей.
func (id BlockID) IsOpaque() bool {
	p := id.props()
	return p.Solid && !p.Transparent
}

// LightEmission уровень собственного свечения 0..15.
func (id BlockID) LightEmission() uint8 {
	return id.props().LightEmission
}

// LightFilter ослабление света при прохождении через блок.
func (id BlockID) LightFilter() uint8 {
	return id.props().LightFilter
}

// Tint базовый цвет блока.
func (id BlockID) Tint() mgl32.Vec3 {
	return id.props().Tint
}

// TintFor цвет конкретной грани.
func (id BlockID) TintFor(face Face) mgl32.Vec3 {
	p := id.props()
	if p.TintTopOnly && face != FaceTop {
		return noTint
	}
	return p.Tint
}

// Tile номер тайла атласа для грани.
func (id BlockID) Tile(face Face) uint16 {
	if face >= FaceCount {
		return 0
	}
	return id.props().Tiles[face]
}

// Name имя блока.
func (id BlockID) Name() string {
	return id.props().Name
}

func (id BlockID) String() string {
	return id.Name()
}

// Occludes сообщает, закрывает ли сосед грань блока self.
// Грань скрыта, если сосед непрозрачный, либо оба блока прозрачные одного типа
// (две клетки воды или стекла не рисуют грань между собой).
func Occludes(self, neighbor BlockID) bool {
	if neighbor.IsOpaque() {
		return true
	}
	if neighbor.IsAir() {
		return false
	}
	return self == neighbor && self.IsTransparent()
}
