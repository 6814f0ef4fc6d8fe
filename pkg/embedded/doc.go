/*
Package embedded carries static data compiled into the binary.

The only payload today is the Chinese recipe set behind -MEAL-CN. An
on-disk copy under data/recipes.json takes precedence when present, so
operators can extend the recipe list without rebuilding.
*/
package embedded
