// Package templates — галерея стартовых workflow.
//
// Шаблоны хранятся в gallery/*.json в формате канваса и встраиваются
// в бинарник. Каждый вызов возвращает копию, которую можно изменять.
package templates
