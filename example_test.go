package dotted

import (
	"context"
	"fmt"
)

func ExampleTree_Get() {
	t := New()
	_ = t.Set("a", "x")
	_ = t.Set("a.b", "y")
	primary, _ := t.Get("a", nil)
	cleaned, _ := t.Get("a.", nil)
	raw, _ := t.Get("a:", nil)
	fmt.Println(primary)
	fmt.Println(cleaned)
	fmt.Println(raw)
	// Output:
	// x
	// map[b:y]
	// map[@value:x b:y]
}

func ExampleTree_Flatten() {
	t := New()
	_ = t.Set("user.name", "Ana")
	_ = t.Set("user.age", 30)
	fmt.Println(t.Flatten(""))
	// Output:
	// map[user.age:30 user.name:Ana]
}

func ExampleStore() {
	ctx := context.Background()
	persist := NewInMemoryStore()

	s, err := Open(ctx, persist, "prefs.json", WithAccelerator(NewSnapshotCache(4)))
	if err != nil {
		panic(err)
	}
	_ = s.Set("theme", "dark")
	wrote, err := s.Save(ctx)
	if err != nil {
		panic(err)
	}
	fmt.Println("written:", wrote)

	again, err := Open(ctx, persist, "prefs.json", WithAccelerator(NewSnapshotCache(4)))
	if err != nil {
		panic(err)
	}
	theme, _ := again.Get("theme", nil)
	fmt.Println("theme:", theme)
	wrote, _ = again.Save(ctx)
	fmt.Println("written:", wrote)
	// Output:
	// written: true
	// theme: dark
	// written: false
}
