package clockgen

import "github.com/robert-at-pretension-io/hdl-gen/internal/hdl"

var outputsTemplates = hdl.Templates{
	VHDL: hdl.MustParse("clock-outputs.vhd", `ClockBus <= GlobalClock&s_output_regs;
makeOutputs : PROCESS( GlobalClock )
BEGIN
   IF (GlobalClock'event AND (GlobalClock = '1')) THEN
      s_buf_regs(0)     <= s_derived_clock_reg({{.Phase}} - 1);
      s_buf_regs(1)     <= NOT(s_derived_clock_reg({{.Phase}} - 1));
      s_output_regs(0)  <= s_buf_regs(0);
      s_output_regs(1)  <= s_buf_regs(1);
      s_output_regs(2)  <= NOT(s_buf_regs(0)) AND s_derived_clock_reg({{.Phase}} - 1);
      s_output_regs(3)  <= s_buf_regs(0) AND NOT(s_derived_clock_reg({{.Phase}} - 1));
   END IF;
END PROCESS makeOutputs;
`),
	Verilog: hdl.MustParse("clock-outputs.v", `assign ClockBus = {GlobalClock,s_output_regs};
always @(posedge GlobalClock)
begin
   s_buf_regs[0]    <= s_derived_clock_reg[{{.Phase}} - 1];
   s_buf_regs[1]    <= ~s_derived_clock_reg[{{.Phase}} - 1];
   s_output_regs[0] <= s_buf_regs[0];
   s_output_regs[1] <= s_buf_regs[1];
   s_output_regs[2] <= ~s_buf_regs[0] & s_derived_clock_reg[{{.Phase}} - 1];
   s_output_regs[3] <= s_buf_regs[0] & ~s_derived_clock_reg[{{.Phase}} - 1];
end
`),
}

var controlTemplates = hdl.Templates{
	VHDL: hdl.MustParse("clock-control.vhd", `s_counter_is_zero <= '1' WHEN s_counter_reg = std_logic_vector(to_unsigned(0,{{.NrOfBits}})) ELSE '0';
s_counter_next    <= std_logic_vector(unsigned(s_counter_reg) - 1)
                       WHEN s_counter_is_zero = '0' ELSE
                    std_logic_vector(to_unsigned(({{.LowTicks}}-1), {{.NrOfBits}}))
                       WHEN s_derived_clock_reg(0) = '1' ELSE
                    std_logic_vector(to_unsigned(({{.HighTicks}}-1), {{.NrOfBits}}));
`),
	Verilog: hdl.MustParse("clock-control.v", `assign s_counter_is_zero = (s_counter_reg == 0) ? 1'b1 : 1'b0;
assign s_counter_next = (s_counter_is_zero == 1'b0)
                           ? s_counter_reg - 1
                           : (s_derived_clock_reg[0] == 1'b1)
                              ? {{.LowTicks}} - 1
                              : {{.HighTicks}} - 1;
`),
}

var initialTemplates = hdl.Templates{
	Verilog: hdl.MustParse("clock-initial.v", `initial
begin
   s_output_regs = 0;
   s_buf_regs = 0;
   s_derived_clock_reg = 0;
   s_counter_reg = 0;
end
`),
}

// An indeterminate derived clock register is forced to all ones in simulation.
var stateTemplates = hdl.Templates{
	VHDL: hdl.MustParse("clock-state.vhd", `makeDerivedClock : PROCESS( GlobalClock , ClockTick , s_counter_is_zero ,
                            s_derived_clock_reg)
BEGIN
   IF (GlobalClock'event AND (GlobalClock = '1')) THEN
      IF (s_derived_clock_reg(0) /= '0' AND s_derived_clock_reg(0) /= '1') THEN --For simulation only
         s_derived_clock_reg <= (OTHERS => '1');
      ELSIF (ClockTick = '1') THEN
         FOR n IN {{.Phase}}-1 DOWNTO 1 LOOP
           s_derived_clock_reg(n) <= s_derived_clock_reg(n-1);
         END LOOP;
         s_derived_clock_reg(0) <= s_derived_clock_reg(0) XOR s_counter_is_zero;
      END IF;
   END IF;
END PROCESS makeDerivedClock;

makeCounter : PROCESS( GlobalClock , ClockTick , s_counter_next ,
                       s_derived_clock_reg )
BEGIN
   IF (GlobalClock'event AND (GlobalClock = '1')) THEN
      IF (s_derived_clock_reg(0) /= '0' AND s_derived_clock_reg(0) /= '1') THEN --For simulation only
         s_counter_reg <= (OTHERS => '0');
      ELSIF (ClockTick = '1') THEN
         s_counter_reg <= s_counter_next;
      END IF;
   END IF;
END PROCESS makeCounter;
`),
	Verilog: hdl.MustParse("clock-state.v", `integer n;
always @(posedge GlobalClock)
begin
   // synthesis translate_off
   if (s_derived_clock_reg[0] !== 1'b0 && s_derived_clock_reg[0] !== 1'b1)
      s_derived_clock_reg <= {{"{"}}{{.Phase}}{1'b1}};
   else
   // synthesis translate_on
   if (ClockTick)
   begin
      s_derived_clock_reg[0] <= s_derived_clock_reg[0] ^ s_counter_is_zero;
      for (n = 1; n < {{.Phase}}; n = n+1) begin
         s_derived_clock_reg[n] <= s_derived_clock_reg[n-1];
      end
   end
end

always @(posedge GlobalClock)
begin
   // synthesis translate_off
   if (s_derived_clock_reg[0] !== 1'b0 && s_derived_clock_reg[0] !== 1'b1)
      s_counter_reg <= 0;
   else
   // synthesis translate_on
   if (ClockTick)
   begin
      s_counter_reg <= s_counter_next;
   end
end
`),
}
