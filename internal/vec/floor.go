package vec

// FloorDiv делит с округлением вниз (к минус бесконечности).
// Обычное деление Go округляет к нулю, что неверно для отрицательных координат:
// FloorDiv(-1, 16) == -1, а -1/16 == 0.
// b должно быть > 0.
func FloorDiv(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// Mod возвращает евклидов остаток, всегда в [0, b).
// b должно быть > 0.
func Mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
