package block

import "github.com/go-gl/mathgl/mgl32"

var (
	noTint    = mgl32.Vec3{1.0, 1.0, 1.0}
	grassTint = mgl32.Vec3{0.486, 0.741, 0.419}
	leafTint  = mgl32.Vec3{0.380, 0.640, 0.310}
	waterTint = mgl32.Vec3{0.247, 0.463, 0.894}
)

// Номера тайлов в атласе текстур.
const (
	tileGrassTop uint16 = iota
	tileStone
	tileDirt
	tileGrassSide
	tileSand
	tileGravel
	tileBedrock
	tileLogSide
	tileLogTop
	tilePlanks
	tileCobblestone
	tileWater
	tileGlass
	tileLeaves
	tileIce
	tileGlowstone
	tileSnow
)

func same(tile uint16) [FaceCount]uint16 {
	return [FaceCount]uint16{tile, tile, tile, tile, tile, tile}
}

func column(side, top, bottom uint16) [FaceCount]uint16 {
	return [FaceCount]uint16{side, side, top, bottom, side, side}
}

// Регистрируем все типы блоков при импорте пакета
func init() {
	register(AirBlockID, Properties{Name: "Air", Tint: noTint})

	// Непрозрачные
	register(StoneBlockID, Properties{Name: "Stone", Solid: true, Tint: noTint, Tiles: same(tileStone)})
	register(DirtBlockID, Properties{Name: "Dirt", Solid: true, Tint: noTint, Tiles: same(tileDirt)})
	register(GrassBlockID, Properties{
		Name:        "Grass",
		Solid:       true,
		Tint:        grassTint,
		TintTopOnly: true,
		Tiles:       column(tileGrassSide, tileGrassTop, tileDirt),
	})
	register(SandBlockID, Properties{Name: "Sand", Solid: true, Tint: noTint, Tiles: same(tileSand)})
	register(GravelBlockID, Properties{Name: "Gravel", Solid: true, Tint: noTint, Tiles: same(tileGravel)})
	register(BedrockBlockID, Properties{Name: "Bedrock", Solid: true, Tint: noTint, Tiles: same(tileBedrock)})
	register(LogBlockID, Properties{Name: "Log", Solid: true, Tint: noTint, Tiles: column(tileLogSide, tileLogTop, tileLogTop)})
	register(PlanksBlockID, Properties{Name: "Planks", Solid: true, Tint: noTint, Tiles: same(tilePlanks)})
	register(CobblestoneBlockID, Properties{Name: "Cobblestone", Solid: true, Tint: noTint, Tiles: same(tileCobblestone)})
	register(SnowBlockID, Properties{Name: "Snow", Solid: true, Tint: noTint, Tiles: same(tileSnow)})
	register(GlowstoneBlockID, Properties{
		Name:          "Glowstone",
		Solid:         true,
		LightEmission: 15,
		Tint:          noTint,
		Tiles:         same(tileGlowstone),
	})

	// Прозрачные
	register(WaterBlockID, Properties{
		Name:        "Water",
		Transparent: true,
		LightFilter: 2,
		Tint:        waterTint,
		Tiles:       same(tileWater),
	})
	register(GlassBlockID, Properties{Name: "Glass", Solid: true, Transparent: true, Tint: noTint, Tiles: same(tileGlass)})
	register(LeavesBlockID, Properties{
		Name:        "Leaves",
		Solid:       true,
		Transparent: true,
		LightFilter: 1,
		Tint:        leafTint,
		Tiles:       same(tileLeaves),
	})
	register(IceBlockID, Properties{
		Name:        "Ice",
		Solid:       true,
		Transparent: true,
		LightFilter: 1,
		Tint:        noTint,
		Tiles:       same(tileIce),
	})
}
