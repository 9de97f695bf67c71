package scene

// Demo 构造一个小型示例场景：两个演员共享同一个球体，
// 球体与盒子分别使用库中的两种材质。
func Demo() *Scene {
	s := NewScene("demo")
	s.Background = Color{0.1, 0.1, 0.2}

	red := s.NewMaterial("red")
	red.SetSurface(Color{1, 0, 0}, Finish{Ambient: 0.1, Diffuse: 0.7, Shine: 40, Spot: 0.3, Specular: White, Transparency: Black, IOR: 1})
	floor := s.DefaultMaterial()

	ball := NewSphere(Vec3{0, 1, 0}, 1, red)
	ground := NewBox(Vec3{-10, -0.1, -10}, Vec3{10, 0, 10}, floor)

	s.AddActor(NewActor("ball", ball))
	mirror := NewActor("ball-mirror", ball)
	mirror.Visible = false
	s.AddActor(mirror)
	s.AddActor(NewActor("ground", ground))

	s.AddLight(NewLight("key", Vec3{5, 10, -5}, White))
	sun := NewLight("sun", Vec3{0, -1, 0}, Color{1, 0.95, 0.8})
	sun.Directional = true
	sun.Falloff = FalloffLinear
	s.AddLight(sun)
	return s
}
